package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 分类错误
// ErrMalformedPayload：主题可识别但负载缺少必需字段
// ErrInvalidChannelNumber：通道号段不是正整数，说明设备/传输配置有误，区别于无关主题的静默丢弃
var (
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrInvalidChannelNumber = errors.New("invalid channel number")
)

// Kind 入站消息分类
type Kind int

const (
	KindUnrecognized Kind = iota
	KindSensorReading
	KindActuatorFeedback
	KindActuatorCommand
)

// SensorPayload home/sensors 负载解析结果
type SensorPayload struct {
	Temperature   float64
	Humidity      float64
	LightLevel    int // 已由 light_raw 换算为百分比
	UptimeSeconds int64
}

// Inbound 入站消息分类结果（不持久化，由接入管道消费一次）
type Inbound struct {
	Kind     Kind
	DeviceID string        // 仅 ActuatorFeedback
	Channel  int           // ActuatorFeedback / ActuatorCommand
	StateOn  bool          // ActuatorFeedback / ActuatorCommand
	Sensor   SensorPayload // 仅 SensorReading
}

// sensorMessage home/sensors 的 JSON 负载
// 指针字段用于区分"缺少键"与"零值"
type sensorMessage struct {
	Temp     *float64 `json:"temp"`
	Hum      *float64 `json:"hum"`
	LightRaw *float64 `json:"light_raw"`
	Uptime   *int64   `json:"uptime"`
}

// Classify 按主题形状分类入站消息并抽取结构化字段
// 纯函数，无 I/O：
//   - home/sensors                              → KindSensorReading
//   - home/devices/{deviceId}/led/{n}/state     → KindActuatorFeedback
//   - home/lamps/{n}                            → KindActuatorCommand
//   - 其他                                      → KindUnrecognized（无错误）
func Classify(topic string, payload []byte) (Inbound, error) {
	if topic == "home/sensors" {
		return classifySensor(payload)
	}

	parts := strings.Split(topic, "/")

	// home/devices/{deviceId}/led/{n}/state
	if len(parts) == 6 && parts[0] == "home" && parts[1] == "devices" && parts[3] == "led" && parts[5] == "state" {
		channel, err := parseChannel(parts[4])
		if err != nil {
			return Inbound{Kind: KindUnrecognized}, fmt.Errorf("%w: topic %s", ErrInvalidChannelNumber, topic)
		}
		return Inbound{
			Kind:     KindActuatorFeedback,
			DeviceID: parts[2],
			Channel:  channel,
			StateOn:  stateFromPayload(payload),
		}, nil
	}

	// home/lamps/{n}
	if len(parts) == 3 && parts[0] == "home" && parts[1] == "lamps" {
		channel, err := parseChannel(parts[2])
		if err != nil {
			return Inbound{Kind: KindUnrecognized}, fmt.Errorf("%w: topic %s", ErrInvalidChannelNumber, topic)
		}
		return Inbound{
			Kind:    KindActuatorCommand,
			Channel: channel,
			StateOn: stateFromPayload(payload),
		}, nil
	}

	return Inbound{Kind: KindUnrecognized}, nil
}

func classifySensor(payload []byte) (Inbound, error) {
	var msg sensorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Inbound{Kind: KindUnrecognized}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg.Temp == nil || msg.Hum == nil || msg.LightRaw == nil {
		return Inbound{Kind: KindUnrecognized}, fmt.Errorf("%w: missing temp/hum/light_raw", ErrMalformedPayload)
	}

	var uptime int64
	if msg.Uptime != nil {
		uptime = *msg.Uptime
	}

	return Inbound{
		Kind: KindSensorReading,
		Sensor: SensorPayload{
			Temperature:   *msg.Temp,
			Humidity:      *msg.Hum,
			LightLevel:    LightLevelFromRaw(*msg.LightRaw),
			UptimeSeconds: uptime,
		},
	}, nil
}

// LightLevelFromRaw 原始 ADC 值（0-4095）换算为光照百分比
// 不做 [0,100] 截断
func LightLevelFromRaw(raw float64) int {
	return int(math.Round((1.0 - raw/4095.0) * 100))
}

// stateFromPayload 负载恰好为 "1" 时为开，其他任何值均视为关（不报错）
func stateFromPayload(payload []byte) bool {
	return string(payload) == "1"
}

func parseChannel(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("channel must be positive, got %d", n)
	}
	return n, nil
}
