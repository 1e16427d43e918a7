package model

import "errors"

var (
	// ErrSnapshotNotFound 指定日期没有市场快照
	ErrSnapshotNotFound = errors.New("市场快照不存在")
	// ErrStockNotFound 指定日期没有该股票的涨停记录
	ErrStockNotFound = errors.New("股票涨停记录不存在")
	// ErrUpstream 外部数据源调用失败
	ErrUpstream = errors.New("数据源调用失败")
	// ErrInvalidDate 日期格式错误
	ErrInvalidDate = errors.New("无效的交易日期")
	// ErrNotFound 通用记录不存在
	ErrNotFound = errors.New("记录不存在")
)
