package validate

import (
	"strings"
	"testing"
)

func TestMessageScriptTagStripped(t *testing.T) {
	res := Message("<script>alert(1)</script>hello")
	if !res.OK {
		t.Fatalf("带脚本标签的消息应在净化后通过，原因: %v", res.Reasons)
	}
	if res.Sanitized != "hello" {
		t.Fatalf("脚本及其内容应被整体移除，得到 %q", res.Sanitized)
	}
	if strings.Contains(res.Sanitized, "&lt;") || strings.Contains(res.Sanitized, "alert") {
		t.Fatalf("净化结果残留标签碎片: %q", res.Sanitized)
	}
}

func TestMessageDangerousPatternsRejected(t *testing.T) {
	cases := []string{
		"click javascript:alert(1) now",
		`<a href="#" onclick=doEvil()>x</a>`,
		"style=width:expression(alert(1))",
		"see data:text/html;base64,xxxx",
	}
	for _, c := range cases {
		if res := Message(c); res.OK {
			t.Errorf("危险内容应被拒绝: %q", c)
		}
	}
}

func TestMessageEmptyAndWhitespace(t *testing.T) {
	if res := Message(""); res.OK {
		t.Error("空消息应被拒绝")
	}
	if res := Message("   \t\n  "); res.OK {
		t.Error("纯空白消息应在净化后被拒绝")
	}
}

func TestMessageLengthBoundary(t *testing.T) {
	if res := Message(strings.Repeat("a", 5000)); !res.OK {
		t.Errorf("恰好 5000 字符应通过，原因: %v", res.Reasons)
	}
	if res := Message(strings.Repeat("a", 5001)); res.OK {
		t.Error("5001 字符应被拒绝")
	}
}

func TestMessageRepeatedRunBoundary(t *testing.T) {
	// 20 个重复字符是合法消息，21 个起按垃圾内容处理
	msg20 := "ok " + strings.Repeat("a", 20)
	res := Message(msg20)
	if !res.OK {
		t.Fatalf("20 连字符应通过校验，原因: %v", res.Reasons)
	}
	if IsSpam(res.Sanitized) {
		t.Fatal("20 连字符不应判为垃圾内容")
	}

	msg21 := "ok " + strings.Repeat("a", 21)
	res = Message(msg21)
	if !res.OK {
		t.Fatalf("21 连字母不触发校验层规则，原因: %v", res.Reasons)
	}
	if !IsSpam(res.Sanitized) {
		t.Fatal("21 连字符应判为垃圾内容")
	}
}

func TestMessageSpecialRunRejected(t *testing.T) {
	if res := Message("look " + strings.Repeat("!", 11)); res.OK {
		t.Error("11 连特殊字符应被拒绝")
	}
	if res := Message("look " + strings.Repeat("!", 5)); !res.OK {
		t.Error("少量特殊字符应通过")
	}
}

func TestMessageSpecialCharRatio(t *testing.T) {
	if res := Message("!@#$%^&*()!@#$%"); res.OK {
		t.Error("特殊字符占比过半应被拒绝")
	}
}

func TestMessageUpperCaseRatio(t *testing.T) {
	if res := Message("THIS IS ALL CAPS SHOUTING AT SUPPORT"); res.OK {
		t.Error("大写占比过高的长消息应被拒绝")
	}
	if res := Message("OK"); !res.OK {
		t.Error("短消息不适用大写占比规则")
	}
}

func TestSanitizeControlCharsAndWhitespace(t *testing.T) {
	got := Sanitize("a\x00b\nc\td   e")
	if got != "ab c d e" {
		t.Fatalf("控制字符与空白归一化异常: %q", got)
	}
}

func TestSanitizeEscapesHTML(t *testing.T) {
	got := Sanitize("tom & jerry")
	if got != "tom &amp; jerry" {
		t.Fatalf("HTML 转义异常: %q", got)
	}
}

func TestIdentityName(t *testing.T) {
	if _, ok := IdentityName("alice"); !ok {
		t.Error("合法标识应通过")
	}
	if got, ok := IdentityName("  bob-7_x.y  "); !ok || got != "bob-7_x.y" {
		t.Errorf("标识应去除首尾空白: %q", got)
	}
	if _, ok := IdentityName(""); ok {
		t.Error("空标识应被拒绝")
	}
	if _, ok := IdentityName(strings.Repeat("a", 51)); ok {
		t.Error("超长标识应被拒绝")
	}
	if _, ok := IdentityName("a<b>"); ok {
		t.Error("含非法字符的标识应被拒绝")
	}
}

func TestSubjectFallback(t *testing.T) {
	if got := Subject(""); got != DefaultSubject {
		t.Errorf("空主题应回退默认值，得到 %q", got)
	}
	if got := Subject(strings.Repeat("s", 201)); got != DefaultSubject {
		t.Errorf("超长主题应回退默认值，得到 %q", got)
	}
	if got := Subject("  billing question  "); got != "billing question" {
		t.Errorf("合法主题应保留并裁剪空白，得到 %q", got)
	}
	if got := Subject("<script>x</script>"); got != DefaultSubject {
		t.Errorf("净化后为空的主题应回退默认值，得到 %q", got)
	}
}

func TestIsSpamKeywords(t *testing.T) {
	spam := []string{
		"cheap viagra here",
		"you won the LOTTERY jackpot",
		"free money for everyone",
		"click here to claim",
		"earn $5000 per week",
		"恭喜中奖，加微信领取",
	}
	for _, s := range spam {
		if !IsSpam(s) {
			t.Errorf("应判为垃圾内容: %q", s)
		}
	}
	if IsSpam("my printer is broken, can you help") {
		t.Error("正常求助消息不应判为垃圾内容")
	}
}

func TestIsSpamURLAndCurrency(t *testing.T) {
	if !IsSpam("http://a.com http://b.com https://c.com") {
		t.Error("3 个及以上链接应判为垃圾内容")
	}
	if IsSpam("see https://docs.example.com and http://example.com") {
		t.Error("两个链接不应判为垃圾内容")
	}
	if !IsSpam("$ $ $ $ $") {
		t.Error("5 个及以上货币符号应判为垃圾内容")
	}
	if IsSpam("it costs $5 or €4") {
		t.Error("少量货币符号不应判为垃圾内容")
	}
}
