package timefilter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 解析错误
var (
	ErrUnrecognizedPattern  = errors.New("unrecognized time pattern")
	ErrInvalidTimeComponent = errors.New("invalid time component")
)

// Kind 时间过滤类型
type Kind int

const (
	KindMinuteOfHour Kind = iota // "13:28"
	KindExactSecond              // "13:28:45"
	KindSingleDay                // "6/9/2025"
	KindDayRange                 // "6/9/2025-8/9/2025"
)

// Filter 解析后的时间过滤条件，由查询引擎消费一次，不落库
// 日期统一归一化为 "2006-01-02" 格式字符串
type Filter struct {
	Kind      Kind
	Hour      int    // MinuteOfHour / ExactSecond
	Minute    int    // MinuteOfHour / ExactSecond
	Second    int    // 仅 ExactSecond
	Date      string // 仅 SingleDay
	StartDate string // 仅 DayRange
	EndDate   string // 仅 DayRange
}

// 模式互斥，按"最具体优先"的顺序匹配：区间 → 单日 → 时分秒 → 时分
// 防止日期串被误读成时间形状
var (
	dayRangeRe    = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}\s*-\s*\d{1,2}/\d{1,2}/\d{4}$`)
	singleDayRe   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	exactSecondRe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
	minuteRe      = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// 宽松日期解析的候选格式，按序尝试，首个成功者生效
var dateLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2/01/2006",
	"02/1/2006",
	"2006-01-02",
}

// Parse 解析用户输入的自由格式时间/日期串
// 用户输入习惯各异，这里用有序的宽松匹配换取可用性，放弃严格文法
func Parse(input string) (Filter, error) {
	input = strings.TrimSpace(input)

	if dayRangeRe.MatchString(input) {
		parts := strings.SplitN(input, "-", 2)
		start, err := parseFlexibleDate(strings.TrimSpace(parts[0]))
		if err != nil {
			return Filter{}, err
		}
		end, err := parseFlexibleDate(strings.TrimSpace(parts[1]))
		if err != nil {
			return Filter{}, err
		}
		return Filter{
			Kind:      KindDayRange,
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		}, nil
	}

	if singleDayRe.MatchString(input) {
		date, err := parseFlexibleDate(input)
		if err != nil {
			return Filter{}, err
		}
		return Filter{
			Kind: KindSingleDay,
			Date: date.Format("2006-01-02"),
		}, nil
	}

	if exactSecondRe.MatchString(input) {
		parts := strings.Split(input, ":")
		hour, _ := strconv.Atoi(parts[0])
		minute, _ := strconv.Atoi(parts[1])
		second, _ := strconv.Atoi(parts[2])
		if err := validateTimeComponents(hour, minute, &second); err != nil {
			return Filter{}, err
		}
		return Filter{Kind: KindExactSecond, Hour: hour, Minute: minute, Second: second}, nil
	}

	if minuteRe.MatchString(input) {
		parts := strings.Split(input, ":")
		hour, _ := strconv.Atoi(parts[0])
		minute, _ := strconv.Atoi(parts[1])
		if err := validateTimeComponents(hour, minute, nil); err != nil {
			return Filter{}, err
		}
		return Filter{Kind: KindMinuteOfHour, Hour: hour, Minute: minute}, nil
	}

	return Filter{}, fmt.Errorf("%w: %q (supported: HH:mm, HH:mm:ss, d/M/yyyy, d/M/yyyy-d/M/yyyy)", ErrUnrecognizedPattern, input)
}

func parseFlexibleDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unable to parse date %q", ErrUnrecognizedPattern, s)
}

func validateTimeComponents(hour, minute int, second *int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidTimeComponent, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidTimeComponent, minute)
	}
	if second != nil && (*second < 0 || *second > 59) {
		return fmt.Errorf("%w: second %d", ErrInvalidTimeComponent, *second)
	}
	return nil
}
