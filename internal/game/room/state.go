package room

// Status 房间状态
type Status string

const (
	StatusLobby   Status = "lobby"   // 大厅：可以加入、离开、改设置
	StatusRunning Status = "running" // 游戏进行中：座位固定
)

// parseStatus 快照中的未知状态按大厅处理
func parseStatus(s string) Status {
	if Status(s) == StatusRunning {
		return StatusRunning
	}
	return StatusLobby
}
