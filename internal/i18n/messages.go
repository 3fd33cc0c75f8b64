// Package i18n maps stable error codes to canned, locale-appropriate
// messages. Codes are the contract; messages are presentation.
package i18n

var messages = map[string]map[string]string{
	"en": {
		"USAGE_LIMIT_EXCEEDED": "You have reached your daily chat limit. It resets at the next day boundary.",
		"PLAN_RESTRICTION":     "Your current plan does not include AI chat. Upgrade to unlock it.",
		"PROVIDER_ERROR":       "Plan information is temporarily unavailable. Please try again.",
		"SYSTEM_ERROR":         "Something went wrong on our side. Please try again shortly.",
	},
	"id": {
		"USAGE_LIMIT_EXCEEDED": "Batas harian chat Anda sudah tercapai. Kuota direset di pergantian hari.",
		"PLAN_RESTRICTION":     "Paket Anda saat ini tidak termasuk AI chat. Upgrade untuk membukanya.",
		"PROVIDER_ERROR":       "Informasi paket sedang tidak tersedia. Silakan coba lagi.",
		"SYSTEM_ERROR":         "Terjadi kesalahan di sisi kami. Silakan coba lagi sebentar lagi.",
	},
}

// Message returns the canned message for the code in the given locale,
// falling back to English and then to the code itself.
func Message(locale, code string) string {
	if byCode, ok := messages[locale]; ok {
		if msg, ok := byCode[code]; ok {
			return msg
		}
	}
	if msg, ok := messages["en"][code]; ok {
		return msg
	}
	return code
}
