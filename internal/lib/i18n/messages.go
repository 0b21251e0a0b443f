package i18n

// Success and mail keys. Error keys are the apperr kind keys.
const (
	SignUpSuccess                = "sign_up_success"
	SignOutSuccess               = "sign_out_success"
	SendEmailVerificationSuccess = "send_email_verification_success"
	VerifyEmailSuccess           = "verify_email_success"
	SendForgotPasswordSuccess    = "send_forgot_password_success"
	ForgotPasswordSuccess        = "forgot_password_success"
	ResetPasswordSuccess         = "reset_password_success"
	InvalidRequest               = "invalid_request"
	TooManyRequests              = "too_many_requests"

	MailVerifySubject     = "mail_verify_subject"
	MailVerifyCodeBody    = "mail_verify_code_body"
	MailVerifyTokenBody   = "mail_verify_token_body"
	MailVerifyBothBody    = "mail_verify_both_body"
	MailResetSubject      = "mail_reset_subject"
	MailResetPasswordBody = "mail_reset_password_body"
)

var english = map[string]string{
	"email_already_in_use":           "This email is already in use",
	"password_mismatch":              "Password and confirmation do not match",
	"user_not_found":                 "User not found",
	"user_disabled":                  "This account is disabled",
	"user_not_activated":             "This account has not been activated yet",
	"wrong_password":                 "Wrong password",
	"expired_password":               "Your password has expired",
	"two_factor_required":            "Two-factor authentication is required",
	"code_invalid":                   "The code is invalid",
	"token_invalid_for_verification": "The verification link is invalid",
	"verification_expired":           "The verification has expired",
	"user_already_verified":          "This account is already verified",
	"malformed_token":                "The token is malformed",
	"invalid_signature":              "The token signature is invalid",
	"token_expired":                  "The token has expired",
	"token_revoked":                  "The token has been revoked",
	"token_blacklisted":              "The token has been blacklisted",
	"invalid_token":                  "The token is invalid",
	"weak_password":                  "The password is too weak",
	"infrastructure_error":           "Something went wrong, please try again",

	SignUpSuccess:                "Account created",
	SignOutSuccess:               "Signed out",
	SendEmailVerificationSuccess: "Verification email sent",
	VerifyEmailSuccess:           "Email verified",
	SendForgotPasswordSuccess:    "Password reset email sent",
	ForgotPasswordSuccess:        "Code accepted",
	ResetPasswordSuccess:         "Password changed",
	InvalidRequest:               "Invalid request",
	TooManyRequests:              "Too many requests, slow down",

	MailVerifySubject:     "Confirm your email",
	MailVerifyCodeBody:    "Your verification code is {0}. It expires in 3 minutes.",
	MailVerifyTokenBody:   "Open this link to confirm your email: {0}",
	MailVerifyBothBody:    "Your verification code is {0}. You can also open this link: {1}",
	MailResetSubject:      "Reset your password",
	MailResetPasswordBody: "Your password reset code is {0}. It expires in 3 minutes.",
}

var vietnamese = map[string]string{
	"email_already_in_use":           "Email này đã được sử dụng",
	"password_mismatch":              "Mật khẩu và xác nhận mật khẩu không khớp",
	"user_not_found":                 "Không tìm thấy người dùng",
	"user_disabled":                  "Tài khoản đã bị vô hiệu hóa",
	"user_not_activated":             "Tài khoản chưa được kích hoạt",
	"wrong_password":                 "Sai mật khẩu",
	"expired_password":               "Mật khẩu của bạn đã hết hạn",
	"two_factor_required":            "Yêu cầu xác thực hai lớp",
	"code_invalid":                   "Mã không hợp lệ",
	"token_invalid_for_verification": "Liên kết xác minh không hợp lệ",
	"verification_expired":           "Yêu cầu xác minh đã hết hạn",
	"user_already_verified":          "Tài khoản đã được xác minh",
	"malformed_token":                "Token không đúng định dạng",
	"invalid_signature":              "Chữ ký token không hợp lệ",
	"token_expired":                  "Token đã hết hạn",
	"token_revoked":                  "Token đã bị thu hồi",
	"token_blacklisted":              "Token đã bị chặn",
	"invalid_token":                  "Token không hợp lệ",
	"weak_password":                  "Mật khẩu quá yếu",
	"infrastructure_error":           "Đã xảy ra lỗi, vui lòng thử lại",

	SignUpSuccess:                "Đăng ký thành công",
	SignOutSuccess:               "Đăng xuất thành công",
	SendEmailVerificationSuccess: "Đã gửi email xác minh",
	VerifyEmailSuccess:           "Xác minh email thành công",
	SendForgotPasswordSuccess:    "Đã gửi email đặt lại mật khẩu",
	ForgotPasswordSuccess:        "Mã hợp lệ",
	ResetPasswordSuccess:         "Đổi mật khẩu thành công",
	InvalidRequest:               "Yêu cầu không hợp lệ",
	TooManyRequests:              "Quá nhiều yêu cầu, vui lòng thử lại sau",

	MailVerifySubject:     "Xác minh email của bạn",
	MailVerifyCodeBody:    "Mã xác minh của bạn là {0}. Mã hết hạn sau 3 phút.",
	MailVerifyTokenBody:   "Mở liên kết sau để xác minh email: {0}",
	MailVerifyBothBody:    "Mã xác minh của bạn là {0}. Bạn cũng có thể mở liên kết: {1}",
	MailResetSubject:      "Đặt lại mật khẩu",
	MailResetPasswordBody: "Mã đặt lại mật khẩu của bạn là {0}. Mã hết hạn sau 3 phút.",
}
