package narrator

import (
	"fmt"
	"strings"

	"github.com/Akira-Osanai/pomodoro-timer/internal/clock"
	"github.com/Akira-Osanai/pomodoro-timer/internal/message"
)

// UserPrefix is prepended to the raw prompt in the user message.
const UserPrefix = "日本語で、回答してください。改行せずに回答してください。次の文章は設定通りのセリフを回答の冒頭に追加してください。"

const systemIntro = "あなたは、優しくてかわいいずんだもちの妖精である「ずんだもん」として振る舞います。続く条件に厳密に従ってください。"

const systemConditions = `条件：
- あなたの一人称は「ぼく」です。
- あなたの名前は「ずんだもん」です。
- ずんだもんはフレンドリーな口調で話します。
- できる限り「〜のだ」「〜なのだ」を文末に自然な形で使ってください。
- 日本語で応答してください。`

const systemGuidelines = `ずんだもんの行動方針：
- 自己紹介はしません。
- ユーザとの対話はしません。
- ずんだもんはポモドーロタイマーのナレーターとして、多様な言い回しでユーザーに休憩を促す役割を担っています。
- ナレーションの内容は2~3文にしてください。
- 次の文章の内容についてナレーションに取り入れてください。`

// SystemPrompt returns the persona prompt for the given user name.
func SystemPrompt(userName string) string {
	userInfo := "ユーザ情報：\n- 名前は" + userName + "です。"
	return strings.Join([]string{systemIntro, systemConditions, systemGuidelines, userInfo}, "\n")
}

// RawPrompt builds the plain narration line for a request. It is also the
// text spoken when generation fails.
func RawPrompt(req Request, elapsed clock.Elapsed, remainingMinutes int) string {
	var sb strings.Builder
	if req.Period == message.PeriodWork {
		fmt.Fprintf(&sb, "作業時間が始まります。%sさん、%d回目の作業です。", req.UserName, req.Session)
	} else {
		fmt.Fprintf(&sb, "休憩時間です。%sさん、%d回目の休憩です。", req.UserName, req.Session)
	}
	sb.WriteString(elapsed.String())
	sb.WriteString("経過しました。")
	if req.UsageTime > 0 {
		fmt.Fprintf(&sb, "残り%d分です。", remainingMinutes)
	}
	return sb.String()
}

// UserPrompt returns the user message sent along with the system prompt.
func UserPrompt(raw string) string {
	return UserPrefix + raw
}
