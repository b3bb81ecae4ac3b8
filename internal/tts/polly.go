package tts

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// pollyAPI is the slice of the SDK client the backend calls.
type pollyAPI interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyClient implements Client against Amazon Polly. Credentials come from
// the SDK default chain (environment, shared config, instance profile).
type PollyClient struct {
	api pollyAPI
}

func NewPollyClient(ctx context.Context, region string) (*PollyClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &PollyClient{api: polly.NewFromConfig(cfg)}, nil
}

// ListVoices pages through DescribeVoices until the continuation token is
// exhausted. There is no partial-result fallback: a failed page fails the
// whole listing.
func (c *PollyClient) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	input := &polly.DescribeVoicesInput{}
	if languageCode != "" {
		input.LanguageCode = pollytypes.LanguageCode(languageCode)
	}

	var voices []Voice
	for {
		out, err := c.api.DescribeVoices(ctx, input)
		if err != nil {
			return nil, &UpstreamError{Op: "describe voices", Err: err}
		}
		for _, v := range out.Voices {
			engines := make([]string, 0, len(v.SupportedEngines))
			for _, e := range v.SupportedEngines {
				engines = append(engines, string(e))
			}
			voices = append(voices, Voice{
				ID:               string(v.Id),
				Name:             aws.ToString(v.Name),
				Gender:           string(v.Gender),
				LanguageCode:     string(v.LanguageCode),
				SupportedEngines: engines,
			})
		}
		if out.NextToken == nil || *out.NextToken == "" {
			return voices, nil
		}
		input.NextToken = out.NextToken
	}
}

func (c *PollyClient) SynthesizeChunk(ctx context.Context, in ChunkInput) ([]byte, error) {
	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(in.Text),
		VoiceId:      pollytypes.VoiceId(in.VoiceID),
		OutputFormat: pollytypes.OutputFormat(in.Format),
	}
	if in.Engine != "" {
		input.Engine = pollytypes.Engine(in.Engine)
	}
	if in.LanguageCode != "" {
		input.LanguageCode = pollytypes.LanguageCode(in.LanguageCode)
	}
	if in.SampleRate > 0 {
		input.SampleRate = aws.String(strconv.Itoa(in.SampleRate))
	}
	if in.TextType == TextTypePlain || in.TextType == TextTypeSSML {
		input.TextType = pollytypes.TextType(in.TextType)
	}

	out, err := c.api.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, &UpstreamError{Op: "synthesize speech", Err: err}
	}
	defer out.AudioStream.Close()
	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, &UpstreamError{Op: "read audio stream", Err: err}
	}
	return data, nil
}
