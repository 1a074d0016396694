package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из строки конфигурации, по умолчанию INFO
func ParseLevel(s string) LogLevel {
	switch s {
	case "trace", "TRACE":
		return TRACE
	case "debug", "DEBUG":
		return DEBUG
	case "warn", "WARN":
		return WARN
	case "error", "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger представляет логгер компонента с выводом в консоль и файл
type Logger struct {
	mu              sync.Mutex
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// Глобальный экземпляр логгера; до инициализации пишет только в stdout
var defaultLogger = &Logger{
	component:       "default",
	consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
	minConsoleLevel: INFO,
	minFileLevel:    ERROR,
}

// LogDir каталог для файлов логов
var LogDir = "logs"

// NewLogger создаёт логгер компонента с файлом logs/<component>_<timestamp>.log
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", LogDir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(LogDir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// NewWriterLogger создаёт логгер без файла, пишущий в w (тесты, встраивание)
func NewWriterLogger(component string, w io.Writer, level LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", 0),
		minConsoleLevel: level,
		minFileLevel:    ERROR,
	}
}

// Close закрывает файл логгера
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// SetConsoleLevel меняет порог вывода в консоль
func (l *Logger) SetConsoleLevel(level LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = level
	l.mu.Unlock()
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	// В файл пишем всё, что выше файлового порога
	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// InitDefaultLogger инициализирует глобальный логгер с файлом для компонента
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// SetDefaultLogger подменяет глобальный логгер
func SetDefaultLogger(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default возвращает глобальный логгер
func Default() *Logger { return defaultLogger }

// CloseDefaultLogger закрывает систему логирования
func CloseDefaultLogger() {
	_ = defaultLogger.Close()
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { defaultLogger.log(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { defaultLogger.log(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { defaultLogger.log(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { defaultLogger.log(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { defaultLogger.log(ERROR, format, args...) }

// LogPayload логирует JSON-представление полезной нагрузки события на уровне TRACE
func LogPayload(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		Trace("%s: <не сериализуется: %v>", eventType, err)
		return
	}
	Trace("%s: %s", eventType, data)
}
