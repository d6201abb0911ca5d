package speech

import (
	"context"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeJoinsBestAlternatives(t *testing.T) {
	var got *speechpb.RecognizeRequest
	g := &GoogleSpeech{
		languageCode: "en-US",
		recognize: func(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			got = req
			return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "who are "}, {Transcript: "hoo are"}}},
				{},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "you"}}},
			}}, nil
		},
	}

	text, err := g.Transcribe(context.Background(), []byte{0x01, 0x02})
	require.NoError(t, err)

	assert.Equal(t, "who are you", text)
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, got.GetConfig().GetEncoding())
	assert.EqualValues(t, SampleRateHertz, got.GetConfig().GetSampleRateHertz())
	assert.Equal(t, "en-US", got.GetConfig().GetLanguageCode())
	assert.Equal(t, []byte{0x01, 0x02}, got.GetAudio().GetContent())
}

func TestTranscribeEmptyAudio(t *testing.T) {
	g := &GoogleSpeech{}
	_, err := g.Transcribe(context.Background(), nil)
	assert.Error(t, err)
}
