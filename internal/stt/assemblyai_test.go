package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavClip builds a 16-bit mono WAV of n samples at amplitude amp.
func wavClip(rate, n int, amp int16) []byte {
	var buf bytes.Buffer
	dataSize := n * 2
	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(rate*2))
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	buf.Write(header)
	for i := 0; i < n; i++ {
		v := amp
		if i%2 == 1 {
			v = -amp
		}
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	pcm, rate, err := decodeWAV(wavClip(8000, 800, 1000))
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	assert.Len(t, pcm, 1600)

	_, _, err = decodeWAV([]byte("OggS...."))
	assert.Error(t, err)
}

func TestHasVoice(t *testing.T) {
	silent, rate, _ := decodeWAV(wavClip(16000, 16000, 10))
	assert.False(t, hasVoice(silent, rate))
	loud, rate, _ := decodeWAV(wavClip(16000, 16000, 3000))
	assert.True(t, hasVoice(loud, rate))
}

func fakeAssemblyAI(t *testing.T, turns []assemblyMessage) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Authorization"))
		assert.Equal(t, "8000", r.URL.Query().Get("sample_rate"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var audio int
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				audio += len(data)
				continue
			}
			if strings.Contains(string(data), "Terminate") {
				break
			}
		}
		assert.Equal(t, 1600, audio)
		for _, m := range turns {
			_ = conn.WriteJSON(m)
		}
		_ = conn.WriteJSON(assemblyMessage{Type: "Termination"})
	}))
}

func TestAssemblyAI_Transcribe(t *testing.T) {
	srv := fakeAssemblyAI(t, []assemblyMessage{
		{Type: "Turn", TurnOrder: 1, Transcript: "nine eight seven six", EndOfTurn: true},
		{Type: "Turn", TurnOrder: 0, Transcript: "my phone ends in", EndOfTurn: false},
		{Type: "Turn", TurnOrder: 0, Transcript: "My phone ends in", EndOfTurn: true},
	})
	defer srv.Close()

	a := NewAssemblyAI("key")
	a.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	text, err := a.Transcribe(context.Background(), wavClip(8000, 800, 2000), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "My phone ends in nine eight seven six", text)
}

func TestAssemblyAI_Failures(t *testing.T) {
	_, err := NewAssemblyAI("").Transcribe(context.Background(), wavClip(8000, 800, 2000), "audio/wav")
	assert.ErrorIs(t, err, ErrNotConfigured)

	a := NewAssemblyAI("key")
	_, err = a.Transcribe(context.Background(), []byte("not a wav"), "audio/webm")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = a.Transcribe(context.Background(), wavClip(8000, 800, 5), "audio/wav")
	assert.ErrorIs(t, err, ErrNotRecognized)

	srv := fakeAssemblyAI(t, nil)
	defer srv.Close()
	a.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	_, err = a.Transcribe(context.Background(), wavClip(8000, 800, 2000), "audio/wav")
	assert.ErrorIs(t, err, ErrNotRecognized)
}
