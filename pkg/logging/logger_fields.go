package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component field helpers for common simulation attributes
func Component(name string) Field {
	return String("component", name)
}

func Scenario(name string) Field {
	return String("scenario", name)
}

func Strategy(name string) Field {
	return String("strategy", name)
}

func StepID(id string) Field {
	return String("step_id", id)
}

func NodeID(id string) Field {
	return String("node_id", id)
}

func Action(action string) Field {
	return String("action", action)
}

func Seed(seed int64) Field {
	return Int64("seed", seed)
}

func RunID(id string) Field {
	return String("run_id", id)
}

// SimTime is a position on the simulated clock, in seconds
func SimTime(seconds int) Field {
	return Int("sim_time", seconds)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
