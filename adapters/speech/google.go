package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/vasifvortex/azercell-project3/domain"
)

// SampleRateHertz is the rate LINEAR16 uploads are expected to use.
const SampleRateHertz = 16000

type GoogleSpeech struct {
	client       *speech.Client
	languageCode string
	recognize    func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

func NewGoogleSpeech(ctx context.Context, languageCode string) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	g := &GoogleSpeech{client: client, languageCode: languageCode}
	g.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	return g, nil
}

// Transcribe recognizes a complete LINEAR16 recording and returns the best
// alternative of every result, space separated.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}

	resp, err := g.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: SampleRateHertz,
			LanguageCode:    g.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(alternatives[0].GetTranscript()))
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleSpeech) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

var _ domain.Transcriber = (*GoogleSpeech)(nil)
