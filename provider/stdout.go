package provider

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/devopsext/vmclient/common"
	"github.com/sirupsen/logrus"
)

type StdoutOptions struct {
	Format          string
	Level           string
	Template        string
	TimestampFormat string
	Version         string
	TextColors      bool
	Output          io.Writer
}

type Stdout struct {
	log          *logrus.Logger
	options      StdoutOptions
	callerOffset int
}

type templateFormatter struct {
	template        *template.Template
	timestampFormat string
}

func (f *templateFormatter) Format(entry *logrus.Entry) ([]byte, error) {

	m := make(map[string]interface{}, len(entry.Data)+3)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		m[k] = v
	}

	m["msg"] = entry.Message
	m["time"] = entry.Time.Format(f.timestampFormat)
	m["level"] = entry.Level.String()

	var b bytes.Buffer
	if err := f.template.Execute(&b, m); err != nil {
		return []byte(entry.Message + "\n"), err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (so *Stdout) callerFields(offset int) logrus.Fields {

	function, file, line := common.GetCallerInfo(so.callerOffset + offset)
	return logrus.Fields{
		"file": fmt.Sprintf("%s:%d", file, line),
		"func": function,
	}
}

func prepare(message string, args ...interface{}) string {

	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// message renders obj when level is enabled; errors are logged by their text.
func (so *Stdout) message(level logrus.Level, obj interface{}, args ...interface{}) (string, bool) {

	if obj == nil || !so.log.IsLevelEnabled(level) {
		return "", false
	}

	var message string
	switch v := obj.(type) {
	case error:
		message = v.Error()
	case string:
		message = prepare(v, args...)
	case fmt.Stringer:
		message = prepare(v.String(), args...)
	default:
		message = fmt.Sprintf("%v", v)
	}
	return message, message != ""
}

func (so *Stdout) Info(obj interface{}, args ...interface{}) common.Logger {

	if message, ok := so.message(logrus.InfoLevel, obj, args...); ok {
		so.log.WithFields(so.callerFields(3)).Infoln(message)
	}
	return so
}

func (so *Stdout) Warn(obj interface{}, args ...interface{}) common.Logger {

	if message, ok := so.message(logrus.WarnLevel, obj, args...); ok {
		so.log.WithFields(so.callerFields(3)).Warnln(message)
	}
	return so
}

func (so *Stdout) Error(obj interface{}, args ...interface{}) common.Logger {

	if message, ok := so.message(logrus.ErrorLevel, obj, args...); ok {
		so.log.WithFields(so.callerFields(3)).Errorln(message)
	}
	return so
}

func (so *Stdout) Debug(obj interface{}, args ...interface{}) common.Logger {

	if message, ok := so.message(logrus.DebugLevel, obj, args...); ok {
		so.log.WithFields(so.callerFields(3)).Debugln(message)
	}
	return so
}

func (so *Stdout) Panic(obj interface{}, args ...interface{}) {

	if message, ok := so.message(logrus.PanicLevel, obj, args...); ok {
		so.log.WithFields(so.callerFields(3)).Panicln(message)
	}
}

func (so *Stdout) Stack(offset int) common.Logger {
	so.callerOffset = so.callerOffset - offset
	return so
}

func (so *Stdout) SetCallerOffset(offset int) {
	so.callerOffset = offset
}

func newTextFormatter(options StdoutOptions) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		TimestampFormat: options.TimestampFormat,
		ForceColors:     options.TextColors,
		FullTimestamp:   true,
	}
}

func newLog(options StdoutOptions) (*logrus.Logger, error) {

	log := logrus.New()

	switch options.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: options.TimestampFormat})
	case "template":
		t, err := template.New("stdout").Parse(options.Template)
		if err != nil {
			return nil, err
		}
		log.SetFormatter(&templateFormatter{template: t, timestampFormat: options.TimestampFormat})
	default:
		log.SetFormatter(newTextFormatter(options))
	}

	level, err := logrus.ParseLevel(options.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if options.Output != nil {
		log.SetOutput(options.Output)
	} else {
		log.SetOutput(os.Stdout)
	}
	return log, nil
}

// NewStdout returns nil when the template of a "template" format cannot be parsed.
func NewStdout(options StdoutOptions) *Stdout {

	log, err := newLog(options)
	if err != nil {
		return nil
	}

	return &Stdout{
		log:          log,
		options:      options,
		callerOffset: 1,
	}
}
