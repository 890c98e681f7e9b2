package handler

import (
	"context"

	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// FriendsListPacket frames the user's friend ids.
func FriendsListPacket(friends []int32) []byte {
	w := packet.NewWriter(packet.ServerFriendsList)
	w.WriteI32List(friends)
	return w.Finish()
}

// HandleFriendAdd persists the new friendship and updates the session cache.
func HandleFriendAdd(s *session.Session, r *packet.Reader, d *Deps) {
	friendID := r.ReadI32()
	if friendID == s.UserID {
		return
	}
	if err := d.Users.AddFriend(context.Background(), s.UserID, friendID); err != nil {
		d.Log.Error("add friend failed",
			zap.Int32("user_id", s.UserID),
			zap.Int32("friend_id", friendID),
			zap.Error(err),
		)
		return
	}
	s.AddFriend(friendID)
}

// HandleFriendRemove removes the friendship from storage and the cache.
func HandleFriendRemove(s *session.Session, r *packet.Reader, d *Deps) {
	friendID := r.ReadI32()
	if err := d.Users.RemoveFriend(context.Background(), s.UserID, friendID); err != nil {
		d.Log.Error("remove friend failed",
			zap.Int32("user_id", s.UserID),
			zap.Int32("friend_id", friendID),
			zap.Error(err),
		)
		return
	}
	s.RemoveFriend(friendID)
}
