package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/bargom/notifydal/cmd/notifydal/testing"
	"github.com/bargom/notifydal/internal/database/setup"
)

func TestRootCommand(t *testing.T) {
	t.Run("shows help when no command provided", func(t *testing.T) {
		output, err := clitest.ExecuteCommand(NewRootCmd(), "--help")

		require.NoError(t, err)
		assert.Contains(t, output, "notifydal")
		assert.Contains(t, output, "Usage:")
	})

	t.Run("has global flags", func(t *testing.T) {
		output, err := clitest.ExecuteCommand(NewRootCmd(), "--help")

		require.NoError(t, err)
		for _, flag := range []string{"--env-file", "--verbose", "--output", "--backend", "--mongo-uri", "--database", "--cache"} {
			assert.Contains(t, output, flag)
		}
	})

	t.Run("shows all subcommands", func(t *testing.T) {
		output, err := clitest.ExecuteCommand(NewRootCmd(), "--help")

		require.NoError(t, err)
		assert.Contains(t, output, "templates")
		assert.Contains(t, output, "serve")
		assert.Contains(t, output, "health")
		assert.Contains(t, output, "version")
		assert.Contains(t, output, "completion")
	})

	t.Run("returns error for unknown command", func(t *testing.T) {
		_, err := clitest.ExecuteCommand(NewRootCmd(), "unknowncommand")

		assert.Error(t, err)
	})
}

func TestGetRootCmd(t *testing.T) {
	cmd := GetRootCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "notifydal", cmd.Use)
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "notifydal", cmd.Use)

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	for _, name := range []string{"templates", "serve", "health", "version", "completion"} {
		assert.True(t, subcommands[name], "missing subcommand %s", name)
	}
}

func TestStorageFlags(t *testing.T) {
	t.Run("flags override the environment", func(t *testing.T) {
		f := useMemoryStorage(t)
		t.Setenv("MONGODB_URI", "mongodb://env-host:27017")

		_, err := clitest.ExecuteCommand(NewRootCmd(), "health",
			"--backend", "mongodb",
			"--mongo-uri", "mongodb://flag-host:27017",
			"--database", "flagdb",
			"--cache", "memory",
		)

		require.NoError(t, err)
		require.Len(t, f.opened, 1)
		opts := f.opened[0]
		assert.Equal(t, setup.BackendMongoDB, opts.Backend)
		assert.Equal(t, "mongodb://flag-host:27017", opts.Mongo.URI)
		assert.Equal(t, "flagdb", opts.Mongo.Database)
		assert.Equal(t, "memory", opts.Cache.Type)
	})

	t.Run("environment applies without flags", func(t *testing.T) {
		f := useMemoryStorage(t)
		t.Setenv("MONGODB_DATABASE", "envdb")

		_, err := clitest.ExecuteCommand(NewRootCmd(), "health")

		require.NoError(t, err)
		require.Len(t, f.opened, 1)
		assert.Equal(t, setup.BackendMemory, f.opened[0].Backend)
		assert.Equal(t, "envdb", f.opened[0].Mongo.Database)
		assert.Equal(t, "none", f.opened[0].Cache.Type)
	})

	t.Run("env file is read", func(t *testing.T) {
		f := useMemoryStorage(t)
		path := clitest.CreateEnvFile(t, "MONGODB_DATABASE=filedb\n")
		t.Setenv("MONGODB_DATABASE", "")
		require.NoError(t, os.Unsetenv("MONGODB_DATABASE"))

		_, err := clitest.ExecuteCommand(NewRootCmd(), "health", "--env-file", path)

		require.NoError(t, err)
		require.Len(t, f.opened, 1)
		assert.Equal(t, "filedb", f.opened[0].Mongo.Database)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		f := useMemoryStorage(t)

		_, err := clitest.ExecuteCommand(NewRootCmd(), "health", "--backend", "postgres")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
		assert.Empty(t, f.opened)
	})

	t.Run("rejects redis cache without url", func(t *testing.T) {
		useMemoryStorage(t)
		t.Setenv("REDIS_URL", "")

		_, err := clitest.ExecuteCommand(NewRootCmd(), "health", "--cache", "redis")

		require.Error(t, err)
	})
}
