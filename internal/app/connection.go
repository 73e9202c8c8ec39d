package app

import (
	"strings"

	"livequiz-service/internal/domain"
)

// AddParticipant validates and performs a regular join. Checks run in
// priority order, short-circuiting on the first failure: the session exists
// (callers resolved it already), it is not locked, the name is free
// (case-insensitive, including records of disconnected players) and the
// name is not banned.
func (s *Session) AddParticipant(connID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrGameNotFound
	}
	if s.locked {
		return domain.ErrGameLocked
	}
	if s.nameTakenLocked(name) {
		return domain.ErrNameTaken
	}
	if _, banned := s.banned[strings.ToLower(name)]; banned {
		return domain.ErrNameBanned
	}
	p := &Participant{ID: connID, Name: name, State: ConnConnected}
	if s.state != StateWaitingRoom {
		p.CurrentChoices = make([]bool, len(s.currentQuestionLocked().Choices))
	}
	s.participants = append(s.participants, p)
	s.broadcastLocked(Event{Type: EventPlayerListActualized, Payload: s.playerListLocked()})
	s.log.Debug().Str("name", name).Msg("participant joined")
	return nil
}

// HandleDisconnect applies the drop semantics for one connection and reports
// whether the whole session must be torn down: the organizer leaving always
// tears down, as does the last connected participant leaving mid-game.
func (s *Session) HandleDisconnect(connID string) (tearDown bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.isOrganizerLocked(connID) {
		for _, p := range s.participants {
			s.toParticipantLocked(p, Event{Type: EventOrganizerLeft})
		}
		return true
	}
	p := s.participantLocked(connID)
	if p == nil || p.State == ConnDisconnected {
		return false
	}
	if s.state == StateWaitingRoom {
		// Waiting-room departures shed the record entirely; the name
		// frees up for whoever wants it next.
		s.removeParticipantLocked(p)
		s.broadcastLocked(Event{Type: EventPlayerListActualized, Payload: s.playerListLocked()})
		return false
	}
	// Mid-game the record stays for scoring and history.
	if p.typingActive {
		if p.typingTimer != nil {
			p.typingTimer.Stop()
			p.typingTimer = nil
		}
		p.typingActive = false
		p.typingGen++
		s.typingCount--
		s.pushTypingLocked()
	}
	if p.HasFinalized {
		s.finishedCount--
	}
	if s.firstToAnswer == p {
		s.cancelGraceLocked()
	}
	p.State = ConnDisconnected
	s.notifyPlayerStateLocked(p)
	if s.connectedCountLocked() == 0 {
		return true
	}
	// The denominator of the all-finished check just shrank.
	s.maybeFinalizeLocked()
	return false
}

func (s *Session) removeParticipantLocked(target *Participant) {
	for i, p := range s.participants {
		if p == target {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return
		}
	}
}

// Teardown irreversibly closes the session: the timer and every scheduled
// task stop so no callback can fire against a removed session. It returns
// the connections still bound so the caller can unbind and close them.
// Idempotent; the registry removal happens in the same critical path on the
// service side.
func (s *Session) Teardown() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.timer.Stop()
	s.cancelDelayLocked()
	s.cancelGraceLocked()
	s.clearTypingLocked(false)
	var conns []string
	if s.organizer != nil {
		conns = append(conns, s.organizer.ID)
	}
	for _, p := range s.participants {
		if p.State != ConnDisconnected {
			conns = append(conns, p.ID)
		}
	}
	s.log.Info().Msg("session torn down")
	return conns
}

// BanParticipant adds the name to the permanent ban list. Organizer only,
// waiting room only. Banning works against names that never joined; if the
// holder is present they are notified, removed and force-disconnected.
func (s *Session) BanParticipant(connID, name string) (kickedConn string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateWaitingRoom || !s.isOrganizerLocked(connID) {
		return "", false
	}
	s.banned[strings.ToLower(name)] = struct{}{}
	if p := s.participantByNameLocked(name); p != nil {
		s.toParticipantLocked(p, Event{Type: EventBanned})
		kickedConn = p.ID
		s.removeParticipantLocked(p)
		s.bc.CloseConn(p.ID)
	}
	s.broadcastLocked(Event{Type: EventPlayerListActualized, Payload: s.playerListLocked()})
	s.log.Info().Str("name", name).Msg("name banned")
	return kickedConn, true
}

// ToggleMute flips a participant's mute flag. Organizer only, any state.
// Muting blocks nothing by itself; the chat path consults the flag.
func (s *Session) ToggleMute(connID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.isOrganizerLocked(connID) {
		return false
	}
	p := s.participantByNameLocked(name)
	if p == nil {
		return false
	}
	p.Muted = !p.Muted
	payload := MutePayload{Name: p.Name, Muted: p.Muted}
	s.toParticipantLocked(p, Event{Type: EventMuteChanged, Payload: payload})
	s.toOrganizerLocked(Event{Type: EventMuteChanged, Payload: payload})
	return true
}

// SendChat relays a chat line to the whole session unless the sender is muted.
func (s *Session) SendChat(connID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	var sender string
	if s.isOrganizerLocked(connID) {
		sender = s.organizer.Name
	} else {
		p := s.participantLocked(connID)
		if p == nil || p.State == ConnDisconnected || p.Muted {
			return false
		}
		sender = p.Name
	}
	s.broadcastLocked(Event{Type: EventChatMessage, Payload: domain.ChatMessage{Sender: sender, Text: text}})
	return true
}
