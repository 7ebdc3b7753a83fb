package util

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	// 对战校验类错误：在任何落库之前被拒绝
	ErrUnknownMode     = errors.New("unknown duel mode")
	ErrNoQuestions     = errors.New("question set is empty")
	ErrQuestionCount   = errors.New("question set does not match mode question count")
	ErrBadQuestion     = errors.New("question has invalid options or correct index")
	ErrAnswerCount     = errors.New("answer count does not match question set")
	ErrInvalidOpponent = errors.New("invalid opponent")

	// 对战状态冲突类错误：引擎不重试，原样返回给调用方
	ErrDuplicateActiveChallenge = errors.New("an active challenge already exists for this pair")
	ErrChallengeNotFound        = errors.New("challenge not found")
	ErrNotReceiver              = errors.New("only the receiving side may act on this challenge")
	ErrNotInitiator             = errors.New("only the initiating side may act on this challenge")
	ErrNotParticipant           = errors.New("user is not a participant of this challenge")
	ErrWrongState               = errors.New("challenge is not in a valid state for this action")
	// ErrAlreadySubmitted 表示之前已经成功交卷，调用方应提示"已记录"而不是让用户重答
	ErrAlreadySubmitted = errors.New("attempt already submitted for this side")
	ErrChallengeClosed  = errors.New("challenge is already closed")
	ErrNotFinished      = errors.New("challenge is not finished yet")
)
