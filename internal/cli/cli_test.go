package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4"
	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

const testBucket = "test-bucket"

type harness struct {
	fake *testutil.FakeS3
	fs   fs.Filesystem
	cfg  Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		fake: testutil.NewFakeS3(testBucket),
		fs:   billy.NewInMemoryFS(),
	}
}

func (h *harness) factory(cfg Config, logger *slog.Logger) (*s4.Client, error) {
	h.cfg = cfg
	opts := []s4types.Option{
		s4.WithFilesystem(h.fs),
		s4.WithLogger(logger),
		s4.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.DefaultBucket != "" {
		opts = append(opts, s4.WithDefaultBucket(cfg.DefaultBucket))
	}
	if cfg.MultipartThreshold > 0 {
		opts = append(opts, s4.WithMultipartThreshold(cfg.MultipartThreshold))
	}
	return s4.NewWithClient(h.fake, opts...)
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(h.factory)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFile(t *testing.T, filesystem fs.Filesystem, path string, data []byte) {
	t.Helper()
	require.NoError(t, filesystem.WriteFile(path, data, 0o644))
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		args    []string
		want    func(t *testing.T, cfg Config)
		wantErr string
	}{
		{
			name: "defaults",
			want: func(t *testing.T, cfg Config) {
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.Equal(t, slog.LevelWarn, cfg.Level())
				assert.Equal(t, 3, cfg.MaxRetries)
				assert.Empty(t, cfg.Region)
			},
		},
		{
			name: "environment",
			env: map[string]string{
				"S4_REGION":              "eu-west-1",
				"S4_PATH_STYLE":          "true",
				"S4_ACCESS_KEY_ID":       "AKID",
				"S4_SECRET_ACCESS_KEY":   "SECRET",
				"S4_MULTIPART_THRESHOLD": "1048576",
			},
			want: func(t *testing.T, cfg Config) {
				assert.Equal(t, "eu-west-1", cfg.Region)
				assert.True(t, cfg.PathStyle)
				assert.Equal(t, "AKID", cfg.AccessKeyID)
				assert.Equal(t, "SECRET", cfg.SecretAccessKey)
				assert.Equal(t, int64(1048576), cfg.MultipartThreshold)
			},
		},
		{
			name: "config file",
			file: "region: ap-south-1\nendpoint: http://localhost:4566\nlog-level: DEBUG\nbucket: data\n",
			want: func(t *testing.T, cfg Config) {
				assert.Equal(t, "ap-south-1", cfg.Region)
				assert.Equal(t, "http://localhost:4566", cfg.Endpoint)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, slog.LevelDebug, cfg.Level())
				assert.Equal(t, "data", cfg.DefaultBucket)
			},
		},
		{
			name: "flag overrides environment and file",
			env:  map[string]string{"S4_REGION": "eu-west-1"},
			file: "region: ap-south-1\n",
			args: []string{"--region", "us-west-2"},
			want: func(t *testing.T, cfg Config) {
				assert.Equal(t, "us-west-2", cfg.Region)
			},
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"S4_LOG_LEVEL": "loud"},
			wantErr: "log-level",
		},
		{
			name:    "invalid endpoint",
			env:     map[string]string{"S4_ENDPOINT": "not-a-url"},
			wantErr: "endpoint",
		},
		{
			name:    "access key without secret",
			env:     map[string]string{"S4_ACCESS_KEY_ID": "AKID"},
			wantErr: "secret-access-key",
		},
		{
			name:    "negative part size",
			env:     map[string]string{"S4_PART_SIZE": "-1"},
			wantErr: "part-size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.file != "" {
				configFile = filepath.Join(t.TempDir(), "s4.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.file), 0o600))
			}

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.String("region", "", "")
			require.NoError(t, flags.Parse(tt.args))

			cfg, err := LoadConfig(flags, configFile)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.want(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "--log-level", "loud", "ls", testBucket)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Empty(t, h.fake.Calls)
}

func TestLsCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "all keys",
			args: []string{"ls", testBucket},
			want: "a\t1\nbb\t2\nccc\t3\nlogs/x\t6\n",
		},
		{
			name: "prefix",
			args: []string{"ls", testBucket, "logs/"},
			want: "logs/x\t6\n",
		},
		{
			name: "count",
			args: []string{"ls", testBucket, "--count"},
			want: "4\n",
		},
		{
			name: "count after skip",
			args: []string{"ls", testBucket, "--skip", "3", "--count"},
			want: "1\n",
		},
		{
			name: "last",
			args: []string{"ls", testBucket, "--last"},
			want: "logs/x\t6\n",
		},
		{
			name: "skip and limit",
			args: []string{"ls", testBucket, "--skip", "1", "--limit", "2"},
			want: "bb\t2\nccc\t3\n",
		},
		{
			name: "skip past end",
			args: []string{"ls", testBucket, "--skip", "10"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fake.SeedKeys(testBucket, "a", "bb", "ccc", "logs/x")

			out, err := h.run(t, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Zero(t, h.fake.CallCount(testutil.OpGet))
		})
	}
}

func TestLsCommand_DefaultBucket(t *testing.T) {
	h := newHarness(t)
	h.fake.SeedKeys(testBucket, "a")

	out, err := h.run(t, "", "--bucket", testBucket, "ls", "-")
	require.NoError(t, err)
	assert.Equal(t, "a\t1\n", out)
	assert.Equal(t, testBucket, h.cfg.DefaultBucket)
}

func TestLsCommand_Errors(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "ls", "missing-bucket")
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrListingFailed)
	})

	t.Run("negative skip", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "ls", testBucket, "--skip", "-1")
		require.Error(t, err)
		assert.Empty(t, h.fake.Calls)
	})

	t.Run("count and last", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "ls", testBucket, "--count", "--last")
		require.Error(t, err)
	})
}

func TestGetCommand(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testBucket, map[string][]byte{"doc.txt": []byte("hello")})

		out, err := h.run(t, "", "get", testBucket, "doc.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("file", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testBucket, map[string][]byte{"doc.txt": []byte("hello")})

		out, err := h.run(t, "", "get", testBucket, "doc.txt", "/out/doc.txt")
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := h.fs.ReadFile("/out/doc.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("existing file", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testBucket, map[string][]byte{"doc.txt": []byte("hello")})
		writeFile(t, h.fs, "/out/doc.txt", []byte("keep"))

		_, err := h.run(t, "", "get", testBucket, "doc.txt", "/out/doc.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrIO)

		data, err := h.fs.ReadFile("/out/doc.txt")
		require.NoError(t, err)
		assert.Equal(t, "keep", string(data))
	})

	t.Run("missing object", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "get", testBucket, "nope")
		require.Error(t, err)
		assert.True(t, s4errors.IsObjectNotFound(err))
	})
}

func TestCatCommand(t *testing.T) {
	t.Run("all objects", func(t *testing.T) {
		h := newHarness(t)
		h.fake.SeedKeys(testBucket, "a", "b", "c")

		out, err := h.run(t, "", "cat", testBucket)
		require.NoError(t, err)
		assert.Equal(t, "abc", out)
		assert.Equal(t, 3, h.fake.CallCount(testutil.OpGet))
	})

	t.Run("skip retrieves only the rest", func(t *testing.T) {
		h := newHarness(t)
		h.fake.SeedKeys(testBucket, "a", "b", "c")

		out, err := h.run(t, "", "cat", testBucket, "--skip", "2")
		require.NoError(t, err)
		assert.Equal(t, "c", out)
		assert.Equal(t, 1, h.fake.CallCount(testutil.OpGet))
	})

	t.Run("retrieval failure", func(t *testing.T) {
		h := newHarness(t)
		h.fake.SeedKeys(testBucket, "a", "b", "c")
		h.fake.GetErr = map[string]error{"b": testutil.APIError("InternalError", "boom")}

		out, err := h.run(t, "", "cat", testBucket)
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrRetrievalFailed)
		assert.Equal(t, "a", out)
	})

	t.Run("keep going", func(t *testing.T) {
		h := newHarness(t)
		h.fake.SeedKeys(testBucket, "a", "b", "c")
		h.fake.GetErr = map[string]error{"b": testutil.APIError("InternalError", "boom")}

		out, err := h.run(t, "", "cat", testBucket, "--keep-going")
		require.NoError(t, err)
		assert.Equal(t, "ac", out)
	})
}

func TestPutCommand(t *testing.T) {
	t.Run("small file", func(t *testing.T) {
		h := newHarness(t)
		writeFile(t, h.fs, "/data/in.txt", []byte("hello"))

		out, err := h.run(t, "", "put", testBucket, "in.txt", "/data/in.txt",
			"--content-type", "text/plain", "--metadata", "owner=ops")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "in.txt\t5\t"))

		data, ok := h.fake.Object(testBucket, "in.txt")
		require.True(t, ok)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, "text/plain", h.fake.ContentType(testBucket, "in.txt"))
		assert.Equal(t, 1, h.fake.CallCount(testutil.OpPut))
	})

	t.Run("multipart file", func(t *testing.T) {
		h := newHarness(t)
		payload := testutil.GenerateRandomData(10 * 1024)
		writeFile(t, h.fs, "/data/big.bin", payload)

		t.Setenv("S4_MULTIPART_THRESHOLD", "4096")
		_, err := h.run(t, "", "put", testBucket, "big.bin", "/data/big.bin", "--part-size", "4096")
		require.NoError(t, err)

		data, ok := h.fake.Object(testBucket, "big.bin")
		require.True(t, ok)
		assert.Equal(t, payload, data)
		assert.Equal(t, 3, h.fake.CallCount(testutil.OpUploadPart))
		assert.Zero(t, h.fake.OpenUploads())
	})

	t.Run("stdin", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "streamed", "put", testBucket, "pipe.txt", "-")
		require.NoError(t, err)

		data, ok := h.fake.Object(testBucket, "pipe.txt")
		require.True(t, ok)
		assert.Equal(t, "streamed", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "", "put", testBucket, "x", "/data/missing.bin")
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrIO)
		assert.Empty(t, h.fake.Calls)
	})

	t.Run("part failure aborts", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv("S4_MULTIPART_THRESHOLD", "4096")
		writeFile(t, h.fs, "/data/big.bin", testutil.GenerateRandomData(10*1024))
		h.fake.PartErr = map[int32]error{2: testutil.APIError("InternalError", "boom")}

		_, err := h.run(t, "", "put", testBucket, "big.bin", "/data/big.bin", "--part-size", "4096")
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrPartUploadFailed)
		assert.Zero(t, h.fake.OpenUploads())
		_, ok := h.fake.Object(testBucket, "big.bin")
		assert.False(t, ok)
	})
}

func TestUploadsCommand(t *testing.T) {
	h := newHarness(t)
	t.Setenv("S4_MULTIPART_THRESHOLD", "4096")
	writeFile(t, h.fs, "/data/big.bin", testutil.GenerateRandomData(10*1024))
	h.fake.CompleteErr = testutil.APIError("InternalError", "boom")

	_, err := h.run(t, "", "put", testBucket, "big.bin", "/data/big.bin", "--part-size", "4096")
	require.Error(t, err)
	assert.ErrorIs(t, err, s4errors.ErrCompletionFailed)
	require.Equal(t, 1, h.fake.OpenUploads())

	out, err := h.run(t, "", "uploads", testBucket)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "big.bin\t"))
	assert.Equal(t, 1, strings.Count(out, "\n"))

	out, err = h.run(t, "", "uploads", testBucket, "--abort")
	require.NoError(t, err)
	assert.Equal(t, "aborted 1 uploads\n", out)
	assert.Zero(t, h.fake.OpenUploads())

	out, err = h.run(t, "", "uploads", testBucket)
	require.NoError(t, err)
	assert.Empty(t, out)
}
