package tts

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	var got *texttospeechpb.SynthesizeSpeechRequest
	g := &GoogleTTS{
		languageCode: "en-US",
		synthesize: func(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			got = req
			return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("ID3")}, nil
		},
	}

	audio, err := g.Synthesize(context.Background(), "I'm Luffy!")
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3"), audio)
	assert.Equal(t, "I'm Luffy!", got.GetInput().GetText())
	assert.Equal(t, "en-US", got.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, got.GetAudioConfig().GetAudioEncoding())
}

func TestSynthesizeErrors(t *testing.T) {
	g := &GoogleTTS{
		synthesize: func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return nil, errors.New("quota")
		},
	}

	_, err := g.Synthesize(context.Background(), "")
	assert.Error(t, err)

	_, err = g.Synthesize(context.Background(), "hi")
	assert.ErrorContains(t, err, "synthesizing speech: quota")
}
