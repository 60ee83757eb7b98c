package hand

// Team 队伍，由座位奇偶决定
type Team int

const (
	Team0 Team = iota // 座位 0、2
	Team1             // 座位 1、3
)

// TeamOf 座位所属队伍
func TeamOf(seat int) Team {
	return Team(seat % 2)
}

// Other 对手队伍
func (t Team) Other() Team {
	return 1 - t
}

// MaybeTeam 可选的队伍，无值表示平局（cangou）或尚无胜者
type MaybeTeam struct {
	team Team
	ok   bool
}

// SomeTeam 有值的 MaybeTeam
func SomeTeam(t Team) MaybeTeam {
	return MaybeTeam{team: t, ok: true}
}

// NoTeam 无值的 MaybeTeam
func NoTeam() MaybeTeam {
	return MaybeTeam{}
}

// Get 取值
func (m MaybeTeam) Get() (Team, bool) {
	return m.team, m.ok
}

// IntPtr 转换为可空整数（仅用于对外投影）
func (m MaybeTeam) IntPtr() *int {
	if !m.ok {
		return nil
	}
	v := int(m.team)
	return &v
}
