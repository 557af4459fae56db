package logsvc

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(log.New(&buf, "", 0), false)

	tests := []struct {
		name string
		log  func()
		want string
	}{
		{name: "debug off", log: func() { logger.Debug("hidden") }, want: ""},
		{name: "info", log: func() { logger.Info("started") }, want: "INFO started\n"},
		{
			name: "extras sorted",
			log:  func() { logger.Warn("poll failed", map[string]interface{}{"path": "/api/parents/", "code": 500}) },
			want: "WARN poll failed code=500 path=/api/parents/\n",
		},
		{
			name: "error and user",
			log:  func() { logger.Error("boom", errors.New("bad"), user.User{Email: "a@b.com"}) },
			want: "ERROR boom error=\"bad\" user=a@b.com\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestStdLogger_Fatal(t *testing.T) {
	var code int
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = os.Exit }()

	var buf bytes.Buffer
	NewStdLogger(log.New(&buf, "", 0), true).Fatal("cannot start")
	assert.Equal(t, 1, code)
	assert.Equal(t, "FATAL cannot start\n", buf.String())
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "PORTAL", &core.Config{Debug: true})
	assert.IsType(t, &StdLogger{}, l)

	l = New(&buf, "PORTAL", &core.Config{RollbarToken: "token", Debug: true})
	assert.IsType(t, &RollbarLogger{}, l)
}
