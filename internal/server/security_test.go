package server

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	// 每秒 5 次，每分钟 10 次
	rl := NewRateLimiter(5, 10, time.Second, zap.NewNop())
	ip := "127.0.0.1"

	// 前 5 次放行
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ip), "第 %d 次应放行", i)
	}

	// 第 6 次超过每秒限制
	assert.False(t, rl.Allow(ip), "第 6 次应被拒绝")
	assert.True(t, rl.IsBanned(ip), "IP 应被封禁")
}

func TestRateLimiter_BurstTraffic(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(10, 50, 200*time.Millisecond, zap.NewNop())
	t.Cleanup(rl.Stop)
	ip := "192.168.1.1"

	// 突发流量
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(ip), "第 %d 次应放行", i)
	}

	assert.False(t, rl.Allow(ip))
	assert.True(t, rl.IsBanned(ip))

	// 等待封禁到期
	time.Sleep(250 * time.Millisecond)

	// 解封后恢复
	assert.False(t, rl.IsBanned(ip))
	assert.True(t, rl.Allow(ip))
}

func TestRateLimiter_BanEndsBeforeMinuteWindow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 3, 200*time.Millisecond, zap.NewNop())
	t.Cleanup(rl.Stop)
	ip := "10.0.0.9"

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow(ip))
	}
	require.False(t, rl.Allow(ip))

	// 封禁时长远小于一分钟，到期后应立即恢复
	time.Sleep(250 * time.Millisecond)
	assert.True(t, rl.Allow(ip))
	assert.True(t, rl.Allow(ip))
	assert.False(t, rl.IsBanned(ip))
}

func TestRateLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 5, time.Second, zap.NewNop())
	ip := "10.0.0.1"

	// 每分钟只允许 5 次
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(ip))
	}

	assert.False(t, rl.Allow(ip))
}

func TestRateLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 200, time.Second, zap.NewNop())
	var wg sync.WaitGroup
	successCount := 0
	var mu sync.Mutex

	// 同一 IP 并发请求
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("concurrent-test") {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Greater(t, successCount, 0)
	assert.LessOrEqual(t, successCount, 50)
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ip      string
		setup   func(*IPFilter)
		allowed bool
	}{
		{
			name:    "Default allow",
			ip:      "192.168.1.1",
			setup:   func(f *IPFilter) {},
			allowed: true,
		},
		{
			name: "Blacklisted IP",
			ip:   "192.168.1.2",
			setup: func(f *IPFilter) {
				f.AddToBlacklist("192.168.1.2")
			},
			allowed: false,
		},
		{
			name: "Whitelist enforcement (IP not in whitelist)",
			ip:   "192.168.1.4",
			setup: func(f *IPFilter) {
				f.AddToWhitelist("10.0.0.1")
			},
			allowed: false,
		},
		{
			name: "Whitelist enforcement (IP in whitelist)",
			ip:   "10.0.0.1",
			setup: func(f *IPFilter) {
				f.AddToWhitelist("10.0.0.1")
			},
			allowed: true,
		},
		{
			name: "Blacklist overrides whitelist",
			ip:   "10.0.0.2",
			setup: func(f *IPFilter) {
				f.AddToWhitelist("10.0.0.2")
				f.AddToBlacklist("10.0.0.2")
			},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter(nil, nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			assert.Equal(t, tt.allowed, f.IsAllowed(tt.ip))
		})
	}
}

func TestNewIPFilter_FromConfig(t *testing.T) {
	t.Parallel()

	f := NewIPFilter([]string{" 10.0.0.1", ""}, []string{"10.0.0.2"})
	assert.True(t, f.IsAllowed("10.0.0.1"))
	assert.False(t, f.IsAllowed("10.0.0.2"))
	assert.False(t, f.IsAllowed("192.168.1.1"), "白名单非空时其它 IP 被拒绝")

	open := NewIPFilter(nil, []string{"10.0.0.2"})
	assert.True(t, open.IsAllowed("192.168.1.1"))
	assert.False(t, open.IsAllowed("10.0.0.2"))
}

func TestGetClientIP_ProxyHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expectedIP string
	}{
		{
			name:       "Direct connection",
			remoteAddr: "192.168.1.1:12345",
			headers:    map[string]string{},
			expectedIP: "192.168.1.1",
		},
		{
			name:       "X-Forwarded-For single IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.1",
			},
			expectedIP: "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.1, 10.0.0.2, 10.0.0.3",
			},
			expectedIP: "203.0.113.1", // 取最原始的客户端
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Real-IP": "203.0.113.2",
			},
			expectedIP: "203.0.113.2",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
				"X-Real-IP":       "203.0.113.4",
			},
			expectedIP: "203.0.113.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			ip := GetClientIP(req)
			assert.Equal(t, tt.expectedIP, ip)
		})
	}
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(5)
	clientID := "client1"

	// 额度内放行
	for i := range 5 {
		allowed, warning := ml.AllowMessage(clientID)
		assert.True(t, allowed)
		// 阈值为 5/2 = 2，第 3 条起开始警告
		if i >= 2 {
			assert.True(t, warning, "Should warn after threshold")
		}
	}

	// 第 6 条被拒绝
	allowed, warning := ml.AllowMessage(clientID)
	assert.False(t, allowed)
	assert.True(t, warning)
}

func TestMessageRateLimiter_WarningCount(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(3)
	clientID := "test-client"

	// 超速触发警告
	for i := 0; i < 5; i++ {
		ml.AllowMessage(clientID)
	}

	warnings := ml.GetWarningCount(clientID)
	assert.Greater(t, warnings, 0)
}

func TestMessageRateLimiter_ClearRateLimit(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(5)
	clientID := "temp-client"

	ml.AllowMessage(clientID)
	ml.AllowMessage(clientID)

	// 断开后重新计数
	ml.ClearRateLimit(clientID)

	allowed, warning := ml.AllowMessage(clientID)
	assert.True(t, allowed)
	assert.False(t, warning)
}

func TestOriginChecker_AllowAll(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"*"})
	req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")

	assert.True(t, oc.Check(req))
}

func TestOriginChecker_SpecificOrigins(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"https://example.com", "https://app.example.com"})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://example.com", true},
		{"https://app.example.com", true},
		{"https://evil.com", false},
		{"http://example.com", false}, // Different scheme
		{"", true},                    // 没有 Origin 头
		{"HTTPS://EXAMPLE.COM", true},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.allowed, oc.Check(req), "Origin: %s", tt.origin)
	}
}
