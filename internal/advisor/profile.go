package advisor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
)

// Survey answers. The model sees these labels verbatim, so they stay in Korean.
var (
	RetirementHorizons = []string{"이미 은퇴함", "5년 미만", "5-10년", "10-20년", "20년 이상"}
	IncomeNeeds        = []string{"월 소득 필요 없음", "월 0원 - 100만 원", "월 101만 원-300만 원", "월 301만 원-500만 원", "월 500만 원 이상"}
	AssetSizes         = []string{"5천만 원 미만", "5천만 원-2억 5천만 원 미만", "2억 5천만 원-10억 원 미만", "10억 원-50억 원 미만", "50억 원 이상"}
	TaxSensitivities   = []string{"매우 민감한", "다소 민감함", "민감하지 않음"}
	ThemePreferences   = []string{"배당", "성장", "ESG(환경, 사회, 지배구조)", "국내 중심", "해외 중심", "균형/분산"}
	RegionPreferences  = []string{"국내 주식 중심", "미국 주식 중심", "기타 선진국 주식 중심(유럽, 일본 등)", "신흥국 주식 중심(중국, 인도 등)", "글로벌 분산 투자"}
	ManagementStyles   = []string{"적극적(직접 관리 선호)", "소극적/자동화(설정 후 신경 쓰지 않는 방식 선호)"}
	RiskTolerances     = []string{"보수적(자본 보존 우선)", "다소 보수적", "중립적(위험과 수익 균형)", "다소 공격적", "공격적(높은 수익 추구, 높은 위험 감수)"}
)

// Profile is an investor's survey answers.
type Profile struct {
	Name              string `json:"name"`
	RetirementHorizon string `json:"retirementHorizon"`
	IncomeNeed        string `json:"incomeNeed"`
	AssetsSize        string `json:"assetsSize"`
	TaxSensitivity    string `json:"taxSensitivity"`
	ThemePreference   string `json:"themePreference"`
	RegionPreference  string `json:"regionPreference"`
	ManagementStyle   string `json:"managementStyle"`
	RiskTolerance     string `json:"riskTolerance"`
	RetirementGoals   string `json:"retirementGoals,omitempty"`
	OtherAssets       string `json:"otherAssets,omitempty"`
}

// Validate reports every answer outside its choice list.
func (p Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, apperrors.NewValidationError("name", p.Name, "name is required"))
	}
	for _, f := range []struct {
		field   string
		value   string
		choices []string
	}{
		{"retirementHorizon", p.RetirementHorizon, RetirementHorizons},
		{"incomeNeed", p.IncomeNeed, IncomeNeeds},
		{"assetsSize", p.AssetsSize, AssetSizes},
		{"taxSensitivity", p.TaxSensitivity, TaxSensitivities},
		{"themePreference", p.ThemePreference, ThemePreferences},
		{"regionPreference", p.RegionPreference, RegionPreferences},
		{"managementStyle", p.ManagementStyle, ManagementStyles},
		{"riskTolerance", p.RiskTolerance, RiskTolerances},
	} {
		if !slices.Contains(f.choices, f.value) {
			errs = append(errs, apperrors.NewValidationError(f.field, f.value, "must be one of "+strings.Join(f.choices, ", ")))
		}
	}
	return errors.Join(errs...)
}

func (p Profile) prompt() string {
	other := strings.TrimSpace(p.OtherAssets)
	if other == "" {
		other = "없음"
	}
	var b strings.Builder
	b.WriteString("Investor profile:\n")
	fmt.Fprintf(&b, "- 은퇴 시기: %s\n", p.RetirementHorizon)
	fmt.Fprintf(&b, "- 월 필요 소득: %s\n", p.IncomeNeed)
	fmt.Fprintf(&b, "- 총 투자 자산: %s\n", p.AssetsSize)
	fmt.Fprintf(&b, "- 세금 민감도: %s\n", p.TaxSensitivity)
	fmt.Fprintf(&b, "- 선호 투자 테마: %s\n", p.ThemePreference)
	fmt.Fprintf(&b, "- 선호 투자 지역: %s\n", p.RegionPreference)
	fmt.Fprintf(&b, "- 선호 관리 스타일: %s\n", p.ManagementStyle)
	fmt.Fprintf(&b, "- 위험 감수 수준: %s\n", p.RiskTolerance)
	if goals := strings.TrimSpace(p.RetirementGoals); goals != "" {
		fmt.Fprintf(&b, "- 은퇴 목표: %s\n", goals)
	}
	fmt.Fprintf(&b, "- 기타 자산: %s\n", other)
	fmt.Fprintf(&b, "- 투자자 이름: %s\n", p.Name)
	return b.String()
}
