package rate

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/infigaming-com/fxboard/request"
	"github.com/infigaming-com/fxboard/util"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultCBRURL = "https://www.cbr.ru/scripts/XML_daily.asp"
	CBRTimeZone   = "Europe/Moscow"
)

type cbrValCurs struct {
	XMLName xml.Name    `xml:"ValCurs"`
	Date    string      `xml:"Date,attr"`
	Valutes []cbrValute `xml:"Valute"`
}

type cbrValute struct {
	ID        string `xml:"ID,attr"`
	NumCode   string `xml:"NumCode"`
	CharCode  string `xml:"CharCode"`
	Nominal   string `xml:"Nominal"`
	Name      string `xml:"Name"`
	Value     string `xml:"Value"`
	VunitRate string `xml:"VunitRate"`
}

// CBRProvider loads the Central Bank of Russia daily fixing. Every rate is quoted in RUB.
type CBRProvider struct {
	lg             *zap.Logger
	url            string
	loc            *time.Location
	now            func() time.Time
	requestOptions []request.Option
}

func NewCBRProvider(url string, opts ...ProviderOption) *CBRProvider {
	o := applyProviderOptions(opts)
	if url == "" {
		url = DefaultCBRURL
	}
	return &CBRProvider{
		lg:             o.lg,
		url:            url,
		loc:            util.MustLoadLocation(CBRTimeZone),
		now:            o.now,
		requestOptions: append([]request.Option{request.WithLogger(o.lg)}, o.requestOptions...),
	}
}

func (p *CBRProvider) Source() Source {
	return SourceCBR
}

func (p *CBRProvider) Fetch(ctx context.Context) (*Snapshot, error) {
	fetchedAt := p.now()
	statusCode, responseBody, err := request.Get(ctx, p.url, p.requestOptions...)
	if err != nil {
		return nil, &FetchError{Source: SourceCBR, Kind: KindNetwork, URL: p.url, Cause: err}
	}
	if !isSuccessStatus(statusCode) {
		return nil, &FetchError{
			Source:     SourceCBR,
			Kind:       KindUpstreamStatus,
			URL:        p.url,
			StatusCode: statusCode,
			Cause:      fmt.Errorf("response: %s", truncate(responseBody, 256)),
		}
	}

	snapshot, err := p.parse(responseBody, fetchedAt)
	if err != nil {
		return nil, &FetchError{Source: SourceCBR, Kind: KindUpstreamFormat, URL: p.url, StatusCode: statusCode, Cause: err}
	}
	return snapshot, nil
}

func (p *CBRProvider) parse(body []byte, fetchedAt time.Time) (*Snapshot, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var doc cbrValCurs
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode ValCurs document: %w", err)
	}

	rates := make(map[Pair]decimal.Decimal, len(doc.Valutes))
	nominals := make(map[string]int64, len(doc.Valutes))
	values := make(map[string]decimal.Decimal, len(doc.Valutes))
	for _, v := range doc.Valutes {
		code, nominal, value, unitRate, err := parseValute(v)
		if err != nil {
			p.lg.Warn("[CBR] skipped unusable record",
				zap.Error(err),
				zap.String("id", v.ID),
				zap.String("charCode", v.CharCode),
			)
			continue
		}
		rates[Pair{Base: RUB, Target: code}] = unitRate
		nominals[code] = nominal
		values[code] = value
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no usable records in %d Valute entries", len(doc.Valutes))
	}

	var effective time.Time
	if doc.Date != "" {
		if d, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(doc.Date), p.loc); err == nil {
			effective = d
		} else {
			p.lg.Warn("[CBR] unparsable fixing date", zap.String("date", doc.Date), zap.Error(err))
		}
	}

	return NewSnapshot(SnapshotParams{
		Source:        SourceCBR,
		FetchedAt:     fetchedAt,
		EffectiveDate: effective,
		Rates:         rates,
		Nominals:      nominals,
		Values:        values,
	})
}

// parseValute normalizes one record. The unit rate falls back to Value/Nominal for documents
// that predate the VunitRate element.
func parseValute(v cbrValute) (code string, nominal int64, value, unitRate decimal.Decimal, err error) {
	code = NormalizeCode(v.CharCode)
	if code == "" {
		return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("missing CharCode")
	}
	nominal, err = strconv.ParseInt(strings.TrimSpace(v.Nominal), 10, 64)
	if err != nil || nominal < 1 {
		return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("invalid Nominal %q", v.Nominal)
	}
	value, err = util.DecimalFromLocaleString(v.Value)
	if err != nil {
		return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("invalid Value: %w", err)
	}
	if !value.IsPositive() {
		return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("non-positive Value %s", value)
	}

	if strings.TrimSpace(v.VunitRate) == "" {
		unitRate = value.Div(decimal.NewFromInt(nominal))
	} else {
		unitRate, err = util.DecimalFromLocaleString(v.VunitRate)
		if err != nil {
			return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("invalid VunitRate: %w", err)
		}
	}
	if !unitRate.IsPositive() {
		return "", 0, decimal.Zero, decimal.Zero, fmt.Errorf("non-positive VunitRate %s", unitRate)
	}
	return code, nominal, value, unitRate, nil
}
