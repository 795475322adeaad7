// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn 返回绑定上下文的连接，tx 非空时在事务内执行
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
