package rate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/infigaming-com/fxboard/request"
	"github.com/infigaming-com/fxboard/util"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultUnionPayBaseURL = "https://www.unionpayintl.com"
	UnionPayTimeZone       = "Asia/Shanghai"
)

type unionPayRecord struct {
	BaseCur  string          `json:"baseCur"`
	TransCur string          `json:"transCur"`
	RateData decimal.Decimal `json:"rateData"`
}

type unionPayDocument struct {
	ExchangeRateJson []unionPayRecord `json:"exchangeRateJson"`
	CurDate          string           `json:"curDate"`
}

// UnionPayProvider loads the daily UnionPay rate document, published per calendar day in Shanghai time.
type UnionPayProvider struct {
	lg             *zap.Logger
	baseURL        string
	loc            *time.Location
	now            func() time.Time
	requestOptions []request.Option
}

func NewUnionPayProvider(baseURL string, opts ...ProviderOption) *UnionPayProvider {
	o := applyProviderOptions(opts)
	if baseURL == "" {
		baseURL = DefaultUnionPayBaseURL
	}
	return &UnionPayProvider{
		lg:             o.lg,
		baseURL:        strings.TrimRight(baseURL, "/"),
		loc:            util.MustLoadLocation(UnionPayTimeZone),
		now:            o.now,
		requestOptions: append([]request.Option{request.WithLogger(o.lg)}, o.requestOptions...),
	}
}

func (p *UnionPayProvider) Source() Source {
	return SourceUnionPay
}

// DocumentURL returns the document address for the Shanghai calendar day containing day.
func (p *UnionPayProvider) DocumentURL(day time.Time) string {
	return fmt.Sprintf("%s/upload/jfimg/%s.json", p.baseURL, day.In(p.loc).Format("20060102"))
}

// Fetch loads today's document. When today's document is missing or unparsable it retries once
// with the previous day's document. Transport failures are returned without the fallback.
func (p *UnionPayProvider) Fetch(ctx context.Context) (*Snapshot, error) {
	fetchedAt := p.now()
	today := fetchedAt.In(p.loc)

	snapshot, err := p.fetchDay(ctx, today, fetchedAt)
	if err == nil {
		return snapshot, nil
	}
	if KindOf(err) == KindNetwork {
		return nil, err
	}

	yesterday := today.AddDate(0, 0, -1)
	p.lg.Warn("[UNIONPAY] today's document unavailable, falling back to previous day",
		zap.Error(err),
		zap.String("url", p.DocumentURL(yesterday)),
	)
	return p.fetchDay(ctx, yesterday, fetchedAt)
}

func (p *UnionPayProvider) fetchDay(ctx context.Context, day, fetchedAt time.Time) (*Snapshot, error) {
	url := p.DocumentURL(day)
	statusCode, responseBody, err := request.Get(ctx, url, p.requestOptions...)
	if err != nil {
		return nil, &FetchError{Source: SourceUnionPay, Kind: KindNetwork, URL: url, Cause: err}
	}
	if !isSuccessStatus(statusCode) {
		return nil, &FetchError{
			Source:     SourceUnionPay,
			Kind:       KindUpstreamStatus,
			URL:        url,
			StatusCode: statusCode,
			Cause:      fmt.Errorf("response: %s", truncate(responseBody, 256)),
		}
	}

	snapshot, err := p.parse(responseBody, day, fetchedAt)
	if err != nil {
		return nil, &FetchError{Source: SourceUnionPay, Kind: KindUpstreamFormat, URL: url, StatusCode: statusCode, Cause: err}
	}
	return snapshot, nil
}

func (p *UnionPayProvider) parse(body []byte, day, fetchedAt time.Time) (*Snapshot, error) {
	records, curDate, err := decodeUnionPayDocument(body)
	if err != nil {
		return nil, err
	}

	rates := make(map[Pair]decimal.Decimal, len(records))
	skipped := 0
	for _, r := range records {
		pair := NewPair(r.BaseCur, r.TransCur)
		if pair.Base == "" || pair.Target == "" || !r.RateData.IsPositive() {
			skipped++
			continue
		}
		rates[pair] = r.RateData
	}
	if skipped > 0 {
		p.lg.Warn("[UNIONPAY] skipped unusable records",
			zap.Int("skipped", skipped),
			zap.Int("total", len(records)),
		)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no usable rate records in %d records", len(records))
	}

	effective := util.StartOfDay(day.In(p.loc))
	if curDate != "" {
		if d, ok := parseUnionPayDate(curDate, p.loc); ok {
			effective = d
		}
	}

	return NewSnapshot(SnapshotParams{
		Source:        SourceUnionPay,
		FetchedAt:     fetchedAt,
		EffectiveDate: effective,
		Rates:         rates,
	})
}

// decodeUnionPayDocument accepts both the wrapped {"exchangeRateJson": [...]} shape and a bare record array.
func decodeUnionPayDocument(body []byte) ([]unionPayRecord, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		var records []unionPayRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, "", fmt.Errorf("failed to decode record array: %w", err)
		}
		return records, "", nil
	}

	var doc unionPayDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, "", fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.ExchangeRateJson == nil {
		return nil, "", fmt.Errorf("document has no exchangeRateJson field")
	}
	return doc.ExchangeRateJson, doc.CurDate, nil
}

func parseUnionPayDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, "20060102"} {
		if d, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
