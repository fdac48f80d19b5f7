package logging

// ProcessName identifies the process a logger belongs to.
type ProcessName string

const (
	BenchProcess ProcessName = "bench"
)

type LoggerConfig struct {
	ProcessName   ProcessName
	IsDevelopment bool
}

func NewDefaultConfig(processName ProcessName) LoggerConfig {
	return LoggerConfig{
		ProcessName:   processName,
		IsDevelopment: true,
	}
}
