package categorize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrBackendUnavailable is returned when no text backend has been configured.
var ErrBackendUnavailable = errors.New("classification backend unavailable")

// BatchItem is one transaction submitted for classification. Index is the
// transaction's position in the whole run, not in the batch.
type BatchItem struct {
	Index       int
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
}

// Classifier maps batch indices to category ids taken from catalog.
type Classifier interface {
	Classify(ctx context.Context, batch []BatchItem, catalog []domain.Category) (map[int]string, error)
}

// TextBackend is a free-text model call.
type TextBackend interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// SystemInstruction is sent with every classification request.
const SystemInstruction = "You categorize bank transactions.\n" +
	"Each transaction line has the form index|type|amount|description.\n" +
	"Each category line has the form id|name.\n" +
	"Answer with one line per transaction in the form index|categoryId.\n" +
	"Use ONLY the category ids listed. Skip a transaction when no category fits.\n" +
	"Return plain text only. Do NOT use code fences or Markdown."

// BatchClassifier implements Classifier on top of a TextBackend using a
// line-oriented pipe format.
type BatchClassifier struct {
	Backend TextBackend
}

// NewBatchClassifier returns a classifier that talks to backend.
func NewBatchClassifier(backend TextBackend) *BatchClassifier {
	return &BatchClassifier{Backend: backend}
}

// Classify sends the batch and the catalog to the backend and keeps only the
// answers that reference a batch index and a catalog id.
func (c *BatchClassifier) Classify(ctx context.Context, batch []BatchItem, catalog []domain.Category) (map[int]string, error) {
	if c == nil || c.Backend == nil {
		return nil, ErrBackendUnavailable
	}
	if len(batch) == 0 || len(catalog) == 0 {
		return map[int]string{}, nil
	}

	raw, err := c.Backend.Generate(ctx, SystemInstruction, BuildPrompt(batch, catalog))
	if err != nil {
		return nil, fmt.Errorf("BatchClassifier.Classify: generate: %w", err)
	}
	return ParseResponse(raw, batch, catalog), nil
}

// BuildPrompt renders the catalog and the batch lines.
func BuildPrompt(batch []BatchItem, catalog []domain.Category) string {
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, cat := range catalog {
		b.WriteString(sanitize(cat.ID))
		b.WriteByte('|')
		b.WriteString(sanitize(cat.Name))
		b.WriteByte('\n')
	}
	b.WriteString("\nTransactions:\n")
	for _, item := range batch {
		b.WriteString(EncodeItem(item))
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodeItem renders item as index|type|amount|description.
func EncodeItem(item BatchItem) string {
	return strings.Join([]string{
		strconv.Itoa(item.Index),
		string(item.Type),
		item.Amount.StringFixed(2),
		sanitize(item.Description),
	}, "|")
}

// sanitize keeps a value on one line and out of the field separator.
func sanitize(s string) string {
	s = strings.NewReplacer("|", "/", "\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}

// ParseResponse reads index|categoryId lines from a model answer. Lines with
// an index outside the batch, an id outside the catalog, or any other shape
// are ignored. The first answer for an index wins.
func ParseResponse(raw string, batch []BatchItem, catalog []domain.Category) map[int]string {
	indices := make(map[int]struct{}, len(batch))
	for _, item := range batch {
		indices[item.Index] = struct{}{}
	}
	ids := make(map[string]struct{}, len(catalog))
	for _, cat := range catalog {
		ids[cat.ID] = struct{}{}
	}

	out := make(map[int]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		left, right, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimLeft(left, "-* ")))
		if err != nil {
			continue
		}
		if _, ok := indices[idx]; !ok {
			continue
		}
		id := strings.TrimSpace(right)
		if _, ok := ids[id]; !ok {
			continue
		}
		if _, seen := out[idx]; !seen {
			out[idx] = id
		}
	}
	return out
}
