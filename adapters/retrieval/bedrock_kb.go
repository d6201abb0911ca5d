package retrieval

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/awsclient"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const provider = "bedrock-knowledge-base"

type retrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// KnowledgeBase queries a managed Bedrock knowledge base.
type KnowledgeBase struct {
	client          retrieveAPI
	knowledgeBaseID string
}

func NewKnowledgeBase(cfg aws.Config, knowledgeBaseID string) *KnowledgeBase {
	return newKnowledgeBase(bedrockagentruntime.NewFromConfig(cfg), knowledgeBaseID)
}

func newKnowledgeBase(client retrieveAPI, knowledgeBaseID string) *KnowledgeBase {
	return &KnowledgeBase{client: client, knowledgeBaseID: knowledgeBaseID}
}

func (k *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	out, err := k.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(k.knowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(topK)),
			},
		},
	})
	if err != nil {
		return nil, awsclient.ClassifyError(provider, err)
	}

	passages := make([]domain.Passage, 0, len(out.RetrievalResults))
	for _, r := range out.RetrievalResults {
		if r.Content == nil || r.Content.Text == nil {
			continue
		}
		p := domain.Passage{Text: aws.ToString(r.Content.Text), Score: aws.ToFloat64(r.Score)}
		if r.Location != nil && r.Location.S3Location != nil {
			p.Source = aws.ToString(r.Location.S3Location.Uri)
		}
		passages = append(passages, p)
	}

	log.WithCtx(ctx).Debug("knowledge base retrieved",
		zap.String("knowledge_base_id", k.knowledgeBaseID),
		zap.Int("top_k", topK),
		zap.Int("passages", len(passages)),
	)
	return passages, nil
}

var _ domain.Retriever = (*KnowledgeBase)(nil)
