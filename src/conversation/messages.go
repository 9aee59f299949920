package conversation

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
)

const (
	callbackPrefixDonate = "donate_"
	donateCustom         = "custom"
)

var presetDonations = []int64{1, 5, 10, 100}

const (
	msgInfo            = "TeleFilm (Phát triển bởi Nguyễn Thái Minh).\nPhiên bản: v1.0.1 Telegram dApp"
	msgHelp            = "Gõ /start để mở ứng dụng, /donate để donate hoặc /register để đăng kí gói."
	msgNotAuthorized   = "Bạn không có quyền sử dụng bot này."
	msgDonatePrompt    = "Cảm ơn bạn đã donate. Bạn muốn donate bao nhiêu?"
	msgCustomPrompt    = "Bạn muốn donate bao nhiêu (Đơn vị tiền tệ: $ cho Đô hoặc VND cho Đồng. Nhập ở cuối số tiền)?"
	msgInvalidFormat   = "Định dạng số tiền không hợp lệ. Vui lòng nhập lại."
	msgBelowMinUSD     = "Số tiền của bạn phải trên 0.5$. Vui lòng nhập lại."
	msgBelowMinVND     = "Số tiền của bạn phải trên 10000VND. Vui lòng nhập lại."
	msgRateUnavailable = "Không lấy được tỉ giá hiện tại. Vui lòng nhập lại sau ít phút."
	msgPackagePrompt   = "Bạn muốn đăng kí gói nào (Xem bảng giá gói ở bên trên)?"
	msgInvalidPackage  = "Gói không hợp lệ. Vui lòng nhập lại."
	msgPaymentFailed   = "Có lỗi xảy ra trong quá trình tạo thanh toán. Vui lòng thử lại sau."
	msgNoPending       = "Bạn chưa có thanh toán nào đang chờ xác nhận."
	msgNotPaidYet      = "⏳ Thanh toán chưa được hoàn tất. Vui lòng thanh toán qua PayPal rồi thử lại."
	msgCheckFailed     = "Không kiểm tra được thanh toán. Vui lòng thử lại sau."

	buttonPay   = "Thanh toán"
	buttonWatch = "Xem phim"
)

func welcomeText(firstName string) string {
	return fmt.Sprintf("Chào mừng bạn, **%s**!\n", firstName) +
		"Bạn đã bao giờ tự hỏi liệu có một ứng dụng dApp nào trên Telegram có thể xem phim trực tuyến miễn phí không? " +
		"Câu trả lời là hoàn toàn có, mà còn là do người Việt Nam tạo ra. Với rất nhiều bộ phim khác nhau có bản lồng tiếng (vietdub) " +
		"và phụ đề (vietsub), nhà phát triển **Nguyễn Thái Minh (@thaiminh0911)** đã tạo ra ứng dụng dApp chạy trên Telegram mang tên " +
		"**TeleFilm**.\n" +
		"Để có thể khởi chạy ứng dụng TeleFilm, bạn chỉ cần truy cập vào mục `Search` của **Telegram**, gõ `telefilm_dapp_bot` sau đó ấn vào con bot tên là " +
		"**TeleFilm**, sau đó ấn vào nút `Start` (hoặc gõ `/start` hoặc `/openapp`) và ấn vào nút `Xem phim` bên dưới là có thể sử dụng.\n" +
		"Đừng quên donate cho nhà phát triển để có thêm động lực up phim nữa nha (gõ `/donate` để donate)"
}

func donationApprovalText(amount decimal.Decimal) string {
	return fmt.Sprintf("Đang chuyển hướng đến PayPal để thanh toán $%s.", formatUSD(amount))
}

func packageApprovalText(code entities.PackageCode) string {
	return fmt.Sprintf("Bạn đang chuyển hướng đến trang Paypal để hoàn tất thanh toán đăng kí gói %s", code)
}

func donationDescription(handle string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s has donated $%s", handle, formatUSD(amount))
}

func packageDescription(handle string, code entities.PackageCode) string {
	return fmt.Sprintf("%s has subscribed to package %s", handle, code)
}

func confirmedText(p entities.IssuedPayment) string {
	if p.Purpose == entities.PurposePackage {
		return fmt.Sprintf("Thanh toán gói %s thành công. Cảm ơn bạn đã đăng ký!", p.Package)
	}
	return fmt.Sprintf("Đã nhận được $%s. Cảm ơn bạn đã donate!", formatUSD(p.Amount))
}

func declinedText(p entities.IssuedPayment) string {
	if p.Purpose == entities.PurposePackage {
		return fmt.Sprintf("Đăng kí gói %s không thành công. Vui lòng thử lại.", p.Package)
	}
	return fmt.Sprintf("Thanh toán donate $%s không thành công. Vui lòng thử lại.", formatUSD(p.Amount))
}

// formatUSD drops the cents of whole amounts: 5 -> "5", 0.8333 -> "0.83".
func formatUSD(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return amount.String()
	}
	return amount.StringFixed(2)
}

func donateKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(presetDonations)+1)
	for _, amount := range presetDonations {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d$", amount), fmt.Sprintf("%s%d", callbackPrefixDonate, amount)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Tuỳ chỉnh", callbackPrefixDonate+donateCustom),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func linkKeyboard(text, url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonURL(text, url),
	))
}

// webAppKeyboard is an inline keyboard of mini-app launch buttons. The
// library's InlineKeyboardButton has no web_app field, and ReplyMarkup is
// sent as plain JSON.
type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

func appKeyboard(text, url string) webAppKeyboard {
	return webAppKeyboard{InlineKeyboard: [][]webAppButton{{
		{Text: text, WebApp: webAppInfo{URL: url}},
	}}}
}
