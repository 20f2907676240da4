package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockJobExecutor 模拟任务执行器
type MockJobExecutor struct {
	mu           sync.Mutex
	executedJobs []string
	shouldError  bool
}

func (m *MockJobExecutor) Execute(ctx context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executedJobs = append(m.executedJobs, job.Config.Name)
	if m.shouldError {
		return errors.New("模拟执行失败")
	}
	return nil
}

func (m *MockJobExecutor) executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.executedJobs...)
}

func validJobConfig(name string) JobConfig {
	return JobConfig{
		Name:     name,
		Enabled:  true,
		Schedule: "0 30 16 * * 1-5",
		Task: TaskConfig{
			Type: TaskRefreshAll,
		},
	}
}

func TestNewJobScheduler(t *testing.T) {
	scheduler := NewJobScheduler()

	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.NotNil(t, scheduler.jobs)
	assert.NotNil(t, scheduler.log)
	assert.NotNil(t, scheduler.ctx)
}

func TestJobScheduler_LoadConfig(t *testing.T) {
	tests := []struct {
		name       string
		configYAML string
		expectJobs int
	}{
		{
			name: "有效配置",
			configYAML: `
jobs:
  - name: "daily-refresh"
    enabled: true
    schedule: "0 30 16 * * 1-5"
    task:
      type: "refresh_all"
  - name: "watchlist-chart"
    enabled: false
    schedule: "0 0 17 * * 1-5"
    task:
      type: "chart"
      codes: ["600519", "000001"]
`,
			expectJobs: 2,
		},
		{
			// 无效任务会被跳过，不会导致整体失败
			name: "无效的 cron 表达式",
			configYAML: `
jobs:
  - name: "invalid-job"
    enabled: true
    schedule: "invalid-cron"
    task:
      type: "refresh_all"
`,
			expectJobs: 0,
		},
		{
			name: "refresh任务缺少目标股票",
			configYAML: `
jobs:
  - name: "no-codes"
    enabled: true
    schedule: "0 30 16 * * 1-5"
    task:
      type: "refresh"
`,
			expectJobs: 0,
		},
		{
			name: "未知任务类型",
			configYAML: `
jobs:
  - name: "weird"
    enabled: true
    schedule: "0 30 16 * * 1-5"
    task:
      type: "teleport"
`,
			expectJobs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "jobs.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.configYAML), 0o644))

			scheduler := NewJobScheduler()
			err := scheduler.LoadConfig(configPath)

			assert.NoError(t, err)
			assert.Len(t, scheduler.jobs, tt.expectJobs)
		})
	}
}

func TestJobScheduler_LoadConfig_FileNotExist(t *testing.T) {
	scheduler := NewJobScheduler()
	err := scheduler.LoadConfig("/nonexistent/jobs.yaml")
	assert.Error(t, err)
}

func TestJobScheduler_AddJob(t *testing.T) {
	t.Run("添加有效任务", func(t *testing.T) {
		scheduler := NewJobScheduler()

		require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))

		job, err := scheduler.GetJob("job-1")
		require.NoError(t, err)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.NotEmpty(t, job.ID)
	})

	t.Run("重复添加被拒绝", func(t *testing.T) {
		scheduler := NewJobScheduler()

		require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))
		assert.Error(t, scheduler.AddJob(validJobConfig("job-1")))
	})

	t.Run("禁用任务状态为disabled", func(t *testing.T) {
		scheduler := NewJobScheduler()
		config := validJobConfig("job-off")
		config.Enabled = false

		require.NoError(t, scheduler.AddJob(config))

		job, err := scheduler.GetJob("job-off")
		require.NoError(t, err)
		assert.Equal(t, JobStatusDisabled, job.Status)
	})

	t.Run("空名称被拒绝", func(t *testing.T) {
		scheduler := NewJobScheduler()
		config := validJobConfig("")
		assert.Error(t, scheduler.AddJob(config))
	})
}

func TestJobScheduler_RemoveJob(t *testing.T) {
	scheduler := NewJobScheduler()
	require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))

	require.NoError(t, scheduler.RemoveJob("job-1"))
	_, err := scheduler.GetJob("job-1")
	assert.Error(t, err)

	assert.Error(t, scheduler.RemoveJob("job-1"))
}

func TestJobScheduler_GetAllJobs(t *testing.T) {
	scheduler := NewJobScheduler()
	require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))
	require.NoError(t, scheduler.AddJob(validJobConfig("job-2")))

	jobs := scheduler.GetAllJobs()
	assert.Len(t, jobs, 2)
}

func TestJobScheduler_RunJob(t *testing.T) {
	t.Run("手动执行任务", func(t *testing.T) {
		scheduler := NewJobScheduler()
		executor := &MockJobExecutor{}
		scheduler.SetExecutor(executor)
		require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))

		require.NoError(t, scheduler.RunJob("job-1"))

		assert.Eventually(t, func() bool {
			return len(executor.executed()) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("执行失败记录错误", func(t *testing.T) {
		scheduler := NewJobScheduler()
		executor := &MockJobExecutor{shouldError: true}
		scheduler.SetExecutor(executor)
		require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))

		require.NoError(t, scheduler.RunJob("job-1"))

		assert.Eventually(t, func() bool {
			job, err := scheduler.GetJob("job-1")
			return err == nil && job.Status == JobStatusError && job.ErrorCount == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("禁用任务不能手动执行", func(t *testing.T) {
		scheduler := NewJobScheduler()
		scheduler.SetExecutor(&MockJobExecutor{})
		config := validJobConfig("job-off")
		config.Enabled = false
		require.NoError(t, scheduler.AddJob(config))

		assert.Error(t, scheduler.RunJob("job-off"))
	})

	t.Run("不存在的任务", func(t *testing.T) {
		scheduler := NewJobScheduler()
		assert.Error(t, scheduler.RunJob("ghost"))
	})
}

func TestJobScheduler_StartStop(t *testing.T) {
	t.Run("未设置执行器不能启动", func(t *testing.T) {
		scheduler := NewJobScheduler()
		assert.Error(t, scheduler.Start())
	})

	t.Run("启动后更新下次运行时间", func(t *testing.T) {
		scheduler := NewJobScheduler()
		scheduler.SetExecutor(&MockJobExecutor{})
		require.NoError(t, scheduler.AddJob(validJobConfig("job-1")))

		require.NoError(t, scheduler.Start())
		defer scheduler.Stop()

		job, err := scheduler.GetJob("job-1")
		require.NoError(t, err)
		require.NotNil(t, job.NextRun)
		assert.True(t, job.NextRun.After(time.Now()))
	})
}
