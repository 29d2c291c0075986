package payment

import "strings"

// Normalized payment method labels.
const (
	MethodCard            = "CARD"
	MethodVirtualAccount  = "VIRTUAL_ACCOUNT"
	MethodMobilePhone     = "MOBILE_PHONE"
	MethodTransfer        = "TRANSFER"
	MethodGiftCertificate = "GIFT_CERTIFICATE"
	MethodEasyPay         = "EASY_PAY"
	MethodOther           = "OTHER"

	MethodTossPay    = "TOSSPAY"
	MethodNaverPay   = "NAVERPAY"
	MethodKakaoPay   = "KAKAOPAY"
	MethodPayco      = "PAYCO"
	MethodSamsungPay = "SAMSUNGPAY"
	MethodApplePay   = "APPLEPAY"
	MethodLPay       = "LPAY"
	MethodSSGPay     = "SSGPAY"
	MethodPinPay     = "PINPAY"
	MethodLGPay      = "LGPAY"
)

var methodAliases = map[string]string{
	"카드":   MethodCard,
	"card": MethodCard,

	"가상계좌":            MethodVirtualAccount,
	"virtualaccount":  MethodVirtualAccount,
	"virtual_account": MethodVirtualAccount,

	"휴대폰":          MethodMobilePhone,
	"mobilephone":  MethodMobilePhone,
	"mobile_phone": MethodMobilePhone,
	"mobile":       MethodMobilePhone,

	"계좌이체":     MethodTransfer,
	"transfer": MethodTransfer,

	"문화상품권":                    MethodGiftCertificate,
	"도서문화상품권":                  MethodGiftCertificate,
	"게임문화상품권":                  MethodGiftCertificate,
	"giftcertificate":          MethodGiftCertificate,
	"gift_certificate":         MethodGiftCertificate,
	"culture_gift_certificate": MethodGiftCertificate,
	"book_gift_certificate":    MethodGiftCertificate,
	"game_gift_certificate":    MethodGiftCertificate,
	"culturegiftcertificate":   MethodGiftCertificate,
	"bookgiftcertificate":      MethodGiftCertificate,
	"gamegiftcertificate":      MethodGiftCertificate,
}

var easyPayMethods = map[string]bool{
	"간편결제":     true,
	"easypay":  true,
	"easy_pay": true,
}

var easyPayProviders = map[string]string{
	"토스페이":       MethodTossPay,
	"tosspay":    MethodTossPay,
	"네이버페이":      MethodNaverPay,
	"naverpay":   MethodNaverPay,
	"카카오페이":      MethodKakaoPay,
	"kakaopay":   MethodKakaoPay,
	"페이코":        MethodPayco,
	"payco":      MethodPayco,
	"삼성페이":       MethodSamsungPay,
	"samsungpay": MethodSamsungPay,
	"애플페이":       MethodApplePay,
	"applepay":   MethodApplePay,
	"엘페이":        MethodLPay,
	"l.pay":      MethodLPay,
	"lpay":       MethodLPay,
	"ssg페이":      MethodSSGPay,
	"ssgpay":     MethodSSGPay,
	"핀페이":        MethodPinPay,
	"pinpay":     MethodPinPay,
	"lg페이":       MethodLGPay,
	"lgpay":      MethodLGPay,
}

func normalizeMethodKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "_")
}

// ClassifyMethod maps the gateway's method string (Korean or English) and the
// optional easy-pay provider to a normalized label. Unknown methods are OTHER.
// An easy-pay method without a recognizable provider is EASY_PAY.
func ClassifyMethod(method, easyPayProvider string) string {
	key := normalizeMethodKey(method)
	if key == "" {
		return MethodOther
	}
	if label, ok := methodAliases[key]; ok {
		return label
	}
	if label, ok := easyPayProviders[key]; ok {
		return label
	}
	if easyPayMethods[key] {
		if label, ok := easyPayProviders[normalizeMethodKey(easyPayProvider)]; ok {
			return label
		}
		return MethodEasyPay
	}
	return MethodOther
}
