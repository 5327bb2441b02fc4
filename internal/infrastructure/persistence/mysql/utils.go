package mysql

import (
	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
)

// tableName 带前缀的表名（拼JOIN语句时使用）
func tableName(db *gorm.DB, model string) string {
	return db.NamingStrategy.TableName(model)
}

// statusValues StatusID切片转为SQL参数
func statusValues(statuses []stock.StatusID) []int64 {
	out := make([]int64, len(statuses))
	for i, s := range statuses {
		out[i] = int64(s)
	}
	return out
}
