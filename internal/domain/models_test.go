package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectKeyFor(t *testing.T) {
	assert.Equal(t, "3:11", DirectKeyFor(3, 11))
	assert.Equal(t, "3:11", DirectKeyFor(11, 3), "key must not depend on argument order")
	assert.Equal(t, "7:7", DirectKeyFor(7, 7))
}

func TestMessageTypeIsValid(t *testing.T) {
	for _, mt := range []MessageType{
		TypeText, TypeEmoji, TypeSticker, TypeGIF, TypeImage, TypeVideo, TypeAudio, TypeFile,
	} {
		assert.True(t, mt.IsValid(), string(mt))
	}
	assert.False(t, MessageType("hologram").IsValid())
	assert.False(t, MessageType("").IsValid())
}

func TestTarget(t *testing.T) {
	st := StreamTarget("stream-42")
	assert.True(t, st.IsStream())
	assert.Equal(t, "stream-42", st.StreamID())
	assert.Equal(t, "stream:stream-42", st.String())

	ct := ConversationTarget(9)
	assert.False(t, ct.IsStream())
	assert.Equal(t, int64(9), ct.ConversationID())
	assert.Equal(t, "conversation:9", ct.String())
}
