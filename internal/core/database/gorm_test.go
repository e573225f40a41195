package database

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		user string
		pass string
		want string
	}{
		{
			name: "driver dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/admin?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/admin?parseTime=true",
		},
		{
			name: "url with credentials",
			in:   "mysql://root:pw@db:3306/admin",
			want: "root:pw@tcp(db:3306)/admin?charset=utf8mb4&parseTime=true",
		},
		{
			name: "jdbc params translated",
			in:   "jdbc:mysql://db:3306/admin?useSSL=false&characterEncoding=utf8&useUnicode=true",
			user: "app",
			pass: "secret",
			want: "app:secret@tcp(db:3306)/admin?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "empty",
			in:   "  ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeMySQLDSN(tt.in, tt.user, tt.pass); got != tt.want {
				t.Errorf("normalizeMySQLDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskDSN(t *testing.T) {
	got := maskDSN("root:secret@tcp(db:3306)/admin")
	if got != "root:****@tcp(db:3306)/admin" {
		t.Errorf("maskDSN = %q", got)
	}
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"}, zap.NewNop())
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
}
