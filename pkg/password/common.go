package password

var commonPasswords = map[string]bool{
	"password":    true,
	"password1":   true,
	"password12":  true,
	"password123": true,
	"password!":   true,
	"123456":      true,
	"12345678":    true,
	"123456789":   true,
	"1234567890":  true,
	"12341234":    true,
	"111111":      true,
	"000000":      true,
	"654321":      true,
	"qwerty":      true,
	"qwerty1":     true,
	"qwerty12":    true,
	"qwerty123":   true,
	"qwertyuiop":  true,
	"asdfghjkl":   true,
	"zxcvbnm":     true,
	"1q2w3e4r":    true,
	"1qaz2wsx":    true,
	"zaq12wsx":    true,
	"abc123":      true,
	"abcd1234":    true,
	"a1b2c3":      true,
	"admin":       true,
	"admin123":    true,
	"letmein":     true,
	"welcome":     true,
	"welcome1":    true,
	"welcome@123": true,
	"iloveyou":    true,
	"monkey":      true,
	"dragon":      true,
	"sunshine":    true,
	"princess":    true,
	"football":    true,
	"cricket":     true,
	"baseball":    true,
	"superman":    true,
	"trustno1":    true,
	"master":      true,
	"secret":      true,
	"india@123":   true,
	"india123":    true,
}
