package core

import "errors"

var (
	// ErrEmptyData 接口返回了空数据
	ErrEmptyData = errors.New("数据为空")

	// ErrSymbolNotSupported 不支持的股票代码
	ErrSymbolNotSupported = errors.New("不支持的股票代码")

	// ErrPeriodNotSupported 不支持的时间周期
	ErrPeriodNotSupported = errors.New("不支持的时间周期")

	// ErrInsufficientData 数据量不足以完成计算
	ErrInsufficientData = errors.New("数据量不足")
)
