package room

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/kwyx"
	"github.com/palemoky/gamehall/internal/game/schocken"
	"github.com/palemoky/gamehall/internal/game/skat"
)

// newEngineLocked 按房间设置开一局新游戏，调用前 epoch 已经递增
func (r *Room) newEngineLocked() (game.Engine, error) {
	names := r.names()
	switch r.Settings.GameType {
	case game.TypeSkat:
		return skat.New(names)
	case game.TypeKwyx:
		return kwyx.New(names,
			kwyx.WithScheduler(roomScheduler{r: r, epoch: r.epoch}),
			kwyx.WithCountdown(r.m.cfg.KwyxCountdownDuration()),
		), nil
	default:
		return schocken.New(names, r.Settings.UseDeckel), nil
	}
}

// restoreEngineLocked 从快照恢复引擎，Kwyx 的倒计时按剩余时间重新挂上
func (r *Room) restoreEngineLocked(data json.RawMessage) (game.Engine, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("empty game state")
	}
	switch r.Settings.GameType {
	case game.TypeSkat:
		var e skat.Engine
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode skat state: %w", err)
		}
		return &e, nil
	case game.TypeKwyx:
		var e kwyx.Engine
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode kwyx state: %w", err)
		}
		return e.Restored(
			kwyx.WithScheduler(roomScheduler{r: r, epoch: r.epoch}),
			kwyx.WithCountdown(r.m.cfg.KwyxCountdownDuration()),
		), nil
	default:
		var e schocken.Engine
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode schocken state: %w", err)
		}
		return e.Restored(), nil
	}
}
