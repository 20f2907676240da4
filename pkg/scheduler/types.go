package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// 任务类型
const (
	TaskRefreshAll = "refresh_all" // 刷新全市场历史数据
	TaskRefresh    = "refresh"     // 刷新指定股票
	TaskChart      = "chart"       // 重绘指定股票图表
)

// JobConfig 定义单个任务的配置
type JobConfig struct {
	Name     string        `mapstructure:"name"`
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	Task     TaskConfig    `mapstructure:"task"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TaskConfig 定义任务内容
type TaskConfig struct {
	Type   string   `mapstructure:"type"`   // refresh_all, refresh, chart
	Codes  []string `mapstructure:"codes"`  // refresh与chart类型的目标股票
	Period string   `mapstructure:"period"` // 留空取daily
	Adjust string   `mapstructure:"adjust"` // 留空取qfq
}

// JobsConfig 定义整个任务配置文件结构
type JobsConfig struct {
	Jobs []JobConfig `mapstructure:"jobs"`
}

// Job 表示一个运行中的任务
type Job struct {
	ID         string
	Config     JobConfig
	EntryID    cron.EntryID
	Status     JobStatus
	LastRun    *time.Time
	NextRun    *time.Time
	RunCount   int64
	ErrorCount int64
	LastError  error
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusStopped  JobStatus = "stopped"
	JobStatusError    JobStatus = "error"
	JobStatusDisabled JobStatus = "disabled"
)

// JobExecutor 任务执行器接口
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobScheduler 任务调度器接口
type JobScheduler interface {
	// 加载配置
	LoadConfig(configPath string) error

	// 启动调度器
	Start() error

	// 停止调度器
	Stop() error

	// 添加任务
	AddJob(config JobConfig) error

	// 移除任务
	RemoveJob(jobName string) error

	// 获取任务状态
	GetJob(jobName string) (*Job, error)

	// 获取所有任务
	GetAllJobs() []*Job

	// 手动执行任务
	RunJob(jobName string) error

	// 设置任务执行器
	SetExecutor(executor JobExecutor)
}
