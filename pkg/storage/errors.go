package storage

import "errors"

var (
	// ErrNotFound 本地没有该股票的数据文件
	ErrNotFound = errors.New("未找到股票数据文件")

	// ErrInvalidData 数据校验未通过，拒绝落盘
	ErrInvalidData = errors.New("股票数据校验未通过")
)
