// Package message defines the period type and the fixed lines the timer
// shows and speaks.
package message

import "fmt"

// Period is the kind of interval the timer is in.
type Period string

const (
	PeriodWork  Period = "work"
	PeriodBreak Period = "break"
)

// Next returns the period that follows p.
func (p Period) Next() Period {
	if p == PeriodWork {
		return PeriodBreak
	}
	return PeriodWork
}

// Label is the Japanese noun used for the period in narration.
func (p Period) Label() string {
	if p == PeriodWork {
		return "作業"
	}
	return "休憩"
}

// Notification titles.
const (
	TitleTimer   = "ポモドーロタイマー"
	TitleStartup = "ポモドーロタイマー起動"
	TitleExit    = "ポモドーロタイマー終了"
)

// Lines spoken and shown at startup and shutdown.
const (
	StartupLine       = "ずんだもんによるポモドーロタイマーアプリ、起動します"
	DeadlineExitLine  = "ずんだもんによるポモドーロタイマーアプリ、指定された時間で終了します"
	InterruptExitLine = "ずんだもんによるポモドーロタイマーアプリ、終了します"
)

// TickTitle returns the notification title for a tick in period p,
// e.g. "作業開始".
func TickTitle(p Period) string {
	return p.Label() + "開始"
}

// TickMessage returns the notification body for the n-th session of p.
func TickMessage(p Period, name string, n int) string {
	return fmt.Sprintf("%sさん、%d回目の%sを開始します。", name, n, p.Label())
}
