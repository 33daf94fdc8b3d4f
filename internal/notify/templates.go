package notify

import (
	"bytes"
	"html/template"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family: sans-serif; padding: 20px; color: #333;">
  <h2>안녕하세요! GoldenEye Navigator입니다.</h2>
  <p><b>{{.Ticker}}</b>에 대한 매일의 매매 신호 분석 알림을 성공적으로 구독하셨습니다.</p>
  <p>앞으로 다음 지표들을 사용하여 분석된 결과를 보내드리겠습니다:</p>
  <ul>
  {{- range .Indicators}}
    <li><b>{{.}}</b></li>
  {{- end}}
  </ul>
  <p>매일 {{.Schedule}}에 분석 결과가 이메일로 발송될 예정입니다. (신호가 '보류'일 경우 제외)</p>
  <p>감사합니다.</p>
</div>
`))

var signalTemplate = template.Must(template.New("signal").Parse(`<div style="font-family: sans-serif; padding: 20px; color: #333; border: 1px solid #ddd; border-radius: 8px; max-width: 600px; margin: auto;">
  <h2 style="color: #B8860B; border-bottom: 2px solid #FFD700; padding-bottom: 10px;">{{.Ticker}} AI 매매 신호 분석</h2>
  <p style="font-size: 18px;">
    오늘의 종합 신호는
    <span style="font-weight: bold; font-size: 20px; color: {{if .Bullish}}#2563eb{{else}}#dc2626{{end}};">"{{.Signal}}"</span>
    입니다.
  </p>
  <p>최근 종가: {{printf "%.2f" .LatestClose}} ({{.AsOf}})</p>
  <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin-top: 20px;">
    <h3 style="margin-top: 0; color: #555;">AI 분석 코멘트</h3>
    <p style="font-style: italic; color: #666;">"{{.Rationale}}"</p>
  </div>
  <div style="margin-top: 20px;">
    <h4 style="color: #555;">분석에 사용된 주요 지표:</h4>
    <ul>
    {{- range .Indicators}}
      <li><b>{{.}}</b></li>
    {{- end}}
    </ul>
  </div>
  <p style="font-size: 12px; color: #777; margin-top: 30px; text-align: center;">
    본 정보는 투자 참고용이며, 최종 투자 결정은 본인의 책임하에 이루어져야 합니다.
    {{- if .SiteURL}}<br/><a href="{{.SiteURL}}" style="color: #B8860B;">웹에서 직접 분석하기</a>{{end}}
  </p>
</div>
`))

type welcomeData struct {
	Ticker     string
	Indicators []string
	Schedule   string
}

type signalData struct {
	Ticker      string
	Signal      string
	Bullish     bool
	LatestClose float64
	AsOf        string
	Rationale   string
	Indicators  []string
	SiteURL     string
}

func displayNames(indicators []models.IndicatorSpec) []string {
	out := make([]string, len(indicators))
	for i, ind := range indicators {
		out[i] = displayName(ind)
	}
	return out
}

func renderWelcome(ticker string, indicators []models.IndicatorSpec, schedule string) (string, error) {
	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, welcomeData{
		Ticker:     ticker,
		Indicators: displayNames(indicators),
		Schedule:   schedule,
	})
	return buf.String(), err
}

func renderSignal(alert models.SignalAlert, siteURL string) (string, error) {
	var buf bytes.Buffer
	asOf := ""
	if !alert.AsOf.IsZero() {
		asOf = alert.AsOf.Format(models.DateLayout)
	}
	err := signalTemplate.Execute(&buf, signalData{
		Ticker:      alert.Ticker,
		Signal:      alert.FinalSignal.Korean(),
		Bullish:     alert.FinalSignal.IsBullish(),
		LatestClose: alert.LatestClose,
		AsOf:        asOf,
		Rationale:   alert.Rationale,
		Indicators:  displayNames(alert.Indicators),
		SiteURL:     siteURL,
	})
	return buf.String(), err
}
