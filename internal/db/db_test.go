package db

import (
	"testing"

	"github.com/hsawaji/flema-backend/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			"plain host",
			config.Config{DBUser: "app", DBPassword: "pw", DBHost: "127.0.0.1", DBPort: "3306", DBName: "flema"},
			"app:pw@tcp(127.0.0.1:3306)/flema?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"explicit tcp",
			config.Config{DBUser: "app", DBPassword: "pw", DBHost: "tcp(db:3307)", DBName: "flema"},
			"app:pw@tcp(db:3307)/flema?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"socket path",
			config.Config{DBUser: "app", DBPassword: "pw", DBHost: "/var/run/mysqld/mysqld.sock", DBName: "flema"},
			"app:pw@unix(/var/run/mysqld/mysqld.sock)/flema?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"cloud sql instance",
			config.Config{DBUser: "app", DBPassword: "pw", DBHost: "ignored", InstanceConnectionName: "proj:asia:flema", DBName: "flema"},
			"app:pw@unix(/cloudsql/proj:asia:flema)/flema?charset=utf8mb4&parseTime=True&loc=Local",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildDSN(&tt.cfg); got != tt.want {
				t.Fatalf("got=%s want=%s", got, tt.want)
			}
		})
	}
}
