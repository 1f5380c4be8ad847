package booking

import (
	"crypto/rand"
	"fmt"
)

// NewReference は予約参照コードを生成する
// 24ビットの乱数を16進6文字で表現した短いトークン。衝突確率は
// 運用上無視できる水準だが、検出はDBの一意制約に委ね、衝突時は
// 呼び出し側のリトライで新しいコードが生成される
func NewReference() string {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand が読めない環境は動作継続不能
		panic(fmt.Sprintf("予約参照コードの生成に失敗: %v", err))
	}
	return fmt.Sprintf("%02X%02X%02X", b[0], b[1], b[2])
}
