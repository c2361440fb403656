// Package session 维护连接与座位之间的绑定。
//
// 座位身份只由令牌决定：持有令牌即拥有该座位。连接断开只解除绑定，
// 令牌在房间被删除之前一直有效。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/palemoky/gamehall/internal/apperrors"
)

// NewToken 生成座位令牌（16 字节随机数，十六进制）
func NewToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Binding 连接当前绑定的座位
type Binding struct {
	Code  string
	Token string
}

// Binder 令牌注册表 + 连接绑定表
//
// Binder 的锁是叶子锁：调用方可以在持有房间锁时调用它，Binder 从不回调房间。
type Binder struct {
	mu     sync.RWMutex
	tokens map[string]string  // token -> room code
	conns  map[string]Binding // connID -> binding
	owners map[string]string  // token -> connID
}

// NewBinder 创建空的 Binder
func NewBinder() *Binder {
	return &Binder{
		tokens: make(map[string]string),
		conns:  make(map[string]Binding),
		owners: make(map[string]string),
	}
}

// Register 登记令牌所属的房间
func (b *Binder) Register(token, code string) {
	b.mu.Lock()
	b.tokens[token] = code
	b.mu.Unlock()
}

// Lookup 查询令牌所属的房间
func (b *Binder) Lookup(token string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	code, ok := b.tokens[token]
	return code, ok
}

// Bind 把连接绑定到令牌对应的座位
//
// 令牌原先绑定的其他连接会被解绑，返回其 connID（没有则为空）。
// 一个连接同一时间只能绑定一个座位。
func (b *Binder) Bind(connID, token string) (prev string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	code, ok := b.tokens[token]
	if !ok {
		return "", apperrors.ErrUnknownToken
	}
	if cur, ok := b.conns[connID]; ok && cur.Token != token {
		return "", apperrors.ErrAlreadyInRoom
	}

	if old, ok := b.owners[token]; ok && old != connID {
		delete(b.conns, old)
		prev = old
	}
	b.conns[connID] = Binding{Code: code, Token: token}
	b.owners[token] = connID
	return prev, nil
}

// Binding 查询连接绑定的座位
func (b *Binder) Binding(connID string) (Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bd, ok := b.conns[connID]
	return bd, ok
}

// Unbind 解除连接的绑定，令牌保持有效
func (b *Binder) Unbind(connID string) (Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bd, ok := b.conns[connID]
	if !ok {
		return Binding{}, false
	}
	delete(b.conns, connID)
	if b.owners[bd.Token] == connID {
		delete(b.owners, bd.Token)
	}
	return bd, true
}

// ForgetToken 作废令牌（玩家离开大厅）
func (b *Binder) ForgetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forgetLocked(token)
}

// ForgetRoom 作废房间的所有令牌（房间被删除）
func (b *Binder) ForgetRoom(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, c := range b.tokens {
		if c == code {
			b.forgetLocked(token)
		}
	}
}

func (b *Binder) forgetLocked(token string) {
	if connID, ok := b.owners[token]; ok {
		delete(b.conns, connID)
		delete(b.owners, token)
	}
	delete(b.tokens, token)
}

// TokenCount 已登记的令牌数
func (b *Binder) TokenCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}
