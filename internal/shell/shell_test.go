package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		cmd      Command
		in       string
		expected string
	}{
		{
			name:     "stdin to stdout",
			cmd:      Command{Script: `read line; printf '%s!' "$line"`},
			in:       "hello\n",
			expected: "hello!",
		},
		{
			name:     "environment",
			cmd:      Command{Script: `printf '%s' "$GREETING"`, Env: map[string]string{"GREETING": "hi"}},
			expected: "hi",
		},
		{
			name:     "working directory",
			cmd:      Command{Script: `printf '%s' "$PWD"`, Dir: "/"},
			expected: "/",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out, err := Pipe(context.Background(), tc.cmd, []byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(out))
		})
	}
}

func TestPipe_Failure(t *testing.T) {
	t.Parallel()

	_, err := Pipe(context.Background(), Command{Script: "echo boom >&2; exit 3"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "status 3")
}

func TestPipe_ErrexitStopsScript(t *testing.T) {
	t.Parallel()

	out, err := Pipe(context.Background(), Command{Script: "printf a; false; printf b"}, nil)
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), Command{Script: "if then"}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse command")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'a b'", Quote("a b"))
	assert.Equal(t, "plain", Quote("plain"))
}
