package repository

import (
	"fmt"
	"strings"

	"homehub-data/internal/timefilter"
)

// timeCondition 将解析后的时间过滤条件翻译为 created_at 上的 SQL 谓词
// offset 为已占用的占位符个数，返回的占位符从 $offset+1 开始
func timeCondition(f *timefilter.Filter, offset int) (string, []interface{}) {
	switch f.Kind {
	case timefilter.KindMinuteOfHour:
		return fmt.Sprintf("to_char(created_at, 'HH24:MI') = $%d", offset+1),
			[]interface{}{fmt.Sprintf("%02d:%02d", f.Hour, f.Minute)}
	case timefilter.KindExactSecond:
		return fmt.Sprintf("to_char(created_at, 'HH24:MI:SS') = $%d", offset+1),
			[]interface{}{fmt.Sprintf("%02d:%02d:%02d", f.Hour, f.Minute, f.Second)}
	case timefilter.KindSingleDay:
		return fmt.Sprintf("created_at::date = $%d::date", offset+1),
			[]interface{}{f.Date}
	case timefilter.KindDayRange:
		return fmt.Sprintf("created_at::date BETWEEN $%d::date AND $%d::date", offset+1, offset+2),
			[]interface{}{f.StartDate, f.EndDate}
	}
	// 不可达：Parse 只产出上述四种
	return "TRUE", nil
}

// escapeLike 转义 LIKE 元字符，使搜索串按字面子串匹配
// Postgres 默认转义符为反斜杠，参数本身先转义自身
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func joinWhere(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
