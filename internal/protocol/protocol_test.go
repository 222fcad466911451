package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidCommands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"put", "PUT apple red", Command{Kind: KindPut, Key: "apple", Value: "red"}},
		{"put with ttl", "PUT apple red 60", Command{Kind: KindPut, Key: "apple", Value: "red", TTL: 60}},
		{"put with zero ttl", "PUT apple red 0", Command{Kind: KindPut, Key: "apple", Value: "red"}},
		{"get", "GET apple", Command{Kind: KindGet, Key: "apple"}},
		{"delete", "DELETE apple", Command{Kind: KindDelete, Key: "apple"}},
		{"exists", "EXISTS apple", Command{Kind: KindExists, Key: "apple"}},
		{"repl put", "REPL_PUT apple red 5", Command{Kind: KindReplPut, Key: "apple", Value: "red", TTL: 5}},
		{"repl delete", "REPL_DELETE apple", Command{Kind: KindReplDelete, Key: "apple"}},
		{"quit", "QUIT", Command{Kind: KindQuit}},
		{"lowercase verb", "put apple red", Command{Kind: KindPut, Key: "apple", Value: "red"}},
		{"surrounding whitespace", "  GET apple  ", Command{Kind: KindGet, Key: "apple"}},
		{"max ttl", "PUT k v 2147483647", Command{Kind: KindPut, Key: "k", Value: "v", TTL: 2147483647}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseErrors(t *testing.T) {
	longToken := strings.Repeat("x", MaxKeyLen+1)

	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty line", "", ErrEmptyCommand},
		{"whitespace only", "   ", ErrEmptyCommand},
		{"unknown verb", "FOO", ErrInvalidCommand},
		{"unknown verb with args", "FOO a b", ErrInvalidCommand},
		{"put without args", "PUT", ErrInvalidCommand},
		{"put without value", "PUT k", ErrInvalidCommand},
		{"put with too many args", "PUT k v 1 extra", ErrInvalidCommand},
		{"get without key", "GET", ErrInvalidCommand},
		{"get with extra arg", "GET k v", ErrInvalidCommand},
		{"delete without key", "DELETE", ErrInvalidCommand},
		{"exists without key", "EXISTS", ErrInvalidCommand},
		{"quit with arg", "QUIT now", ErrInvalidCommand},
		{"key too long", "GET " + longToken, ErrKeyTooLong},
		{"put key too long", "PUT " + longToken + " v", ErrKeyTooLong},
		{"value too long", "PUT k " + longToken, ErrValueTooLong},
		{"ttl not a number", "PUT k v soon", ErrInvalidTTL},
		{"ttl negative", "PUT k v -1", ErrInvalidTTL},
		{"ttl overflow", "PUT k v 99999999999", ErrInvalidTTL},
		{"repl put bad ttl", "REPL_PUT k v x", ErrInvalidTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseErrorMessagesAreWireText(t *testing.T) {
	// The server puts err.Error() directly on the wire, so the text
	// must match the protocol's reference errors.
	assert.Equal(t, "empty command", ErrEmptyCommand.Error())
	assert.Equal(t, "invalid command", ErrInvalidCommand.Error())
	assert.Equal(t, "key too long", ErrKeyTooLong.Error())
	assert.Equal(t, "value too long", ErrValueTooLong.Error())
	assert.Equal(t, "invalid ttl", ErrInvalidTTL.Error())
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"put", Command{Kind: KindPut, Key: "k", Value: "v"}, "PUT k v\n"},
		{"put with ttl", Command{Kind: KindPut, Key: "k", Value: "v", TTL: 60}, "PUT k v 60\n"},
		{"get", Command{Kind: KindGet, Key: "k"}, "GET k\n"},
		{"delete", Command{Kind: KindDelete, Key: "k"}, "DELETE k\n"},
		{"exists", Command{Kind: KindExists, Key: "k"}, "EXISTS k\n"},
		{"repl put", Command{Kind: KindReplPut, Key: "k", Value: "v", TTL: 5}, "REPL_PUT k v 5\n"},
		{"repl delete", Command{Kind: KindReplDelete, Key: "k"}, "REPL_DELETE k\n"},
		{"quit", Command{Kind: KindQuit}, "QUIT\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCommand(tt.cmd))
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	// parse(format(cmd)) must reconstruct cmd for every valid command.
	cmds := []Command{
		{Kind: KindPut, Key: "apple", Value: "red"},
		{Kind: KindPut, Key: "apple", Value: "red", TTL: 3600},
		{Kind: KindGet, Key: "apple"},
		{Kind: KindDelete, Key: "apple"},
		{Kind: KindExists, Key: "apple"},
		{Kind: KindReplPut, Key: "apple", Value: "red", TTL: 1},
		{Kind: KindReplDelete, Key: "apple"},
		{Kind: KindQuit},
	}
	for _, cmd := range cmds {
		got, err := Parse(strings.TrimSuffix(FormatCommand(cmd), "\n"))
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
	}

	// format(parse(line)) is the canonical normalization of any valid
	// line: verbs upper-cased, single spaces, ttl 0 omitted.
	lines := map[string]string{
		"PUT k v\n":      "PUT k v\n",
		"put k v 0\n":    "PUT k v\n",
		"  get   k  \n":  "GET k\n",
		"PUT k v 10\n":   "PUT k v 10\n",
		"REPL_PUT k v\n": "REPL_PUT k v\n",
		"quit\n":         "QUIT\n",
	}
	for in, want := range lines {
		cmd, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, FormatCommand(cmd), "normalizing %q", in)
	}
}

func TestFormatResponse(t *testing.T) {
	assert.Equal(t, "OK stored\n", FormatResponse(Stored()))
	assert.Equal(t, "OK deleted\n", FormatResponse(Deleted()))
	assert.Equal(t, "OK red\n", FormatResponse(Value("red")))
	assert.Equal(t, "OK 1\n", FormatResponse(Exists(true)))
	assert.Equal(t, "OK 0\n", FormatResponse(Exists(false)))
	assert.Equal(t, "OK bye\n", FormatResponse(Bye()))
	assert.Equal(t, "ERROR key not found\n", FormatResponse(Error("key not found")))
	assert.Equal(t, "OK\n", FormatResponse(Response{OK: true}))
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse("OK red\n")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "red", resp.Payload)

	resp, err = ParseResponse("ERROR key not found\n")
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "key not found", resp.Payload)

	resp, err = ParseResponse("OK\n")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Payload)

	// CRLF from peers is tolerated.
	resp, err = ParseResponse("OK stored\r\n")
	require.NoError(t, err)
	assert.Equal(t, "stored", resp.Payload)

	_, err = ParseResponse("WHAT is this\n")
	assert.Error(t, err)
}

func TestReplConversion(t *testing.T) {
	put := Command{Kind: KindPut, Key: "k", Value: "v", TTL: 9}
	repl := put.Repl()
	assert.Equal(t, KindReplPut, repl.Kind)
	assert.Equal(t, "k", repl.Key)
	assert.Equal(t, "v", repl.Value)
	assert.Equal(t, int64(9), repl.TTL)

	del := Command{Kind: KindDelete, Key: "k"}
	assert.Equal(t, KindReplDelete, del.Repl().Kind)

	assert.Panics(t, func() { Command{Kind: KindGet, Key: "k"}.Repl() })
}

func TestCommandClassification(t *testing.T) {
	assert.True(t, Command{Kind: KindPut}.IsWrite())
	assert.True(t, Command{Kind: KindDelete}.IsWrite())
	assert.True(t, Command{Kind: KindGet}.IsRead())
	assert.True(t, Command{Kind: KindExists}.IsRead())
	assert.True(t, Command{Kind: KindReplPut}.IsReplication())
	assert.True(t, Command{Kind: KindReplDelete}.IsReplication())
	assert.False(t, Command{Kind: KindReplPut}.IsWrite())
	assert.False(t, Command{Kind: KindQuit}.IsRead())
}
