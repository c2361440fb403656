package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/server/storage"
)

const saveQueueSize = 256

// saveJob data 为 nil 表示删除
type saveJob struct {
	code string
	data *storage.RoomData
}

// save 在房间锁内取快照，写入交给后台协程
func (m *Manager) save(r *Room) {
	if m.store == nil {
		return
	}
	m.enqueue(saveJob{code: r.Code, data: r.toRoomDataLocked()})
}

func (m *Manager) deleteSnapshot(code string) {
	if m.store == nil {
		return
	}
	m.enqueue(saveJob{code: code})
}

// enqueue 队列满时丢弃，快照是尽力而为的
func (m *Manager) enqueue(job saveJob) {
	select {
	case <-m.done:
		return
	default:
	}
	select {
	case m.saves <- job:
	default:
		m.log.Warn("快照队列已满，丢弃本次保存", zap.String("room", job.code))
	}
}

// saveLoop 按顺序写入快照，同一房间的保存和删除不会乱序
func (m *Manager) saveLoop() {
	defer close(m.saveDone)
	for {
		select {
		case job := <-m.saves:
			m.write(job)
		case <-m.done:
			for {
				select {
				case job := <-m.saves:
					m.write(job)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) write(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
	defer cancel()

	if job.data == nil {
		if err := m.store.DeleteRoom(ctx, job.code); err != nil {
			m.log.Error("删除房间快照失败", zap.String("room", job.code), zap.Error(err))
		}
		return
	}
	if err := m.store.SaveRoom(ctx, job.code, job.data); err != nil {
		m.log.Error("保存房间快照失败", zap.String("room", job.code), zap.Error(err))
	}
}
