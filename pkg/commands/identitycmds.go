package commands

import (
	"fmt"
	"strings"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/identity"
	"github.com/aedmark/shellos/pkg/shell"
)

func init() {
	Default.Register(Entry{Name: "useradd", Help: "create a new user account",
		Schema: shell.CommandSchema{RootRequired: true, Flags: []shell.FlagSpec{
			{Name: "password", Short: 'p', TakesValue: true},
		}}, Run: runUseradd})
	Default.Register(Entry{Name: "usermod", Help: "change a user's primary group",
		Schema: shell.CommandSchema{RootRequired: true, Flags: []shell.FlagSpec{
			{Name: "group", Short: 'g', TakesValue: true},
		}}, Run: runUsermod})
	Default.Register(Entry{Name: "removeuser", Help: "delete a user account",
		Schema: shell.CommandSchema{RootRequired: true}, Run: runRemoveuser})
	Default.Register(Entry{Name: "groupadd", Help: "create a new group",
		Schema: shell.CommandSchema{RootRequired: true}, Run: runGroupadd})
	Default.Register(Entry{Name: "groupdel", Help: "delete a group",
		Schema: shell.CommandSchema{RootRequired: true}, Run: runGroupdel})
	Default.Register(Entry{Name: "groups", Help: "print the groups a user belongs to", Run: runGroups})
	Default.Register(Entry{Name: "passwd", Help: "change a password", Run: runPasswd})
	Default.Register(Entry{Name: "listusers", Help: "list every registered user", Run: runListusers})
	Default.Register(Entry{Name: "login", Help: "start a new session as a user", Run: runLogin})
	Default.Register(Entry{Name: "logout", Help: "end the current identity frame", Run: runLogout})
	Default.Register(Entry{Name: "su", Help: "switch user", Run: runSu})
	Default.Register(Entry{Name: "sudo", Help: "run a command as root", Run: runSudo})
	Default.Register(Entry{Name: "visudo", Help: "edit the sudoers file",
		Schema: shell.CommandSchema{RootRequired: true}, Run: runVisudo})
}

func runUseradd(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("useradd: missing username")
	}
	username := pos[0].Text
	if err := identity.ValidateUsername(username); err != nil {
		return effect.Fail("useradd: " + err.Error())
	}
	password, _ := flagStr(flags, "password")
	if err := sys.Identity.Groups.CreateGroup(username); err != nil && err != identity.ErrGroupExists {
		return effect.Fail("useradd: " + err.Error())
	}
	if err := sys.Identity.Users.RegisterUser(username, password, username); err != nil {
		return effect.Fail("useradd: " + err.Error())
	}
	_ = sys.Identity.Groups.AddUserToGroup(username, username)
	homePath := "/home/" + username
	rootActor := sys.Identity.ActorFor("root")
	if err := sys.FS.CreateDirectory(homePath, rootActor); err != nil {
		return errResult(err)
	}
	if err := sys.FS.Chown(homePath, username, rootActor); err != nil {
		return errResult(err)
	}
	if err := sys.FS.Chgrp(homePath, username, rootActor); err != nil {
		return errResult(err)
	}
	_ = sys.Audit.Log(cc.Actor.Name, "useradd", username)
	return effect.Ok(username + ": account created").WithEffect(effect.New(effect.KindUseradd, map[string]any{
		"username": username,
	}))
}

func runUsermod(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("usermod: missing username")
	}
	group, ok := flagStr(flags, "group")
	if !ok {
		return effect.Fail("usermod: missing -g group")
	}
	if !sys.Identity.Groups.GroupExists(group) {
		return effect.Fail("usermod: no such group: " + group)
	}
	if err := sys.Identity.Users.SetPrimaryGroup(pos[0].Text, group); err != nil {
		return effect.Fail("usermod: " + err.Error())
	}
	return effect.Ok(pos[0].Text + ": primary group set to " + group)
}

func runRemoveuser(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("removeuser: missing username")
	}
	username := pos[0].Text
	if err := sys.Identity.Users.RemoveUser(username); err != nil {
		return effect.Fail("removeuser: " + err.Error())
	}
	sys.Identity.Groups.RemoveUserFromAllGroups(username)
	_ = sys.Audit.Log(cc.Actor.Name, "removeuser", username)
	return effect.Ok(username + ": account removed").WithEffect(effect.New(effect.KindRemoveuser, map[string]any{
		"username": username,
	}))
}

func runGroupadd(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("groupadd: missing group name")
	}
	if err := sys.Identity.Groups.CreateGroup(pos[0].Text); err != nil {
		return effect.Fail("groupadd: " + err.Error())
	}
	return effect.Ok(pos[0].Text + ": group created")
}

func runGroupdel(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("groupdel: missing group name")
	}
	if err := sys.Identity.Groups.DeleteGroup(pos[0].Text); err != nil {
		return effect.Fail("groupdel: " + err.Error())
	}
	return effect.Ok(pos[0].Text + ": group deleted")
}

func runGroups(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	username := cc.Actor.Name
	if len(pos) > 0 {
		username = pos[0].Text
	}
	return effect.Ok(strings.Join(sys.Identity.EffectiveGroups(username), " "))
}

func runPasswd(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	username := cc.Actor.Name
	if len(pos) > 0 && cc.Actor.Name == "root" {
		username = pos[0].Text
	}
	return effect.Ok("password change requires interactive confirmation").WithEffect(effect.New(effect.KindPasswd, map[string]any{
		"username": username,
	}))
}

func runListusers(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	all := sys.Identity.Users.AllUsers()
	var names []string
	for name := range all {
		names = append(names, name)
	}
	return effect.Ok(joinLines(sortedStrings(names)))
}

func runLogin(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("login: missing username")
	}
	username := pos[0].Text
	if !sys.Identity.Users.UserExists(username) {
		return effect.Fail("login: no such user: " + username)
	}
	return effect.Ok(fmt.Sprintf("logging in as %s", username)).WithEffect(effect.New(effect.KindLogin, map[string]any{
		"username": username,
	}))
}

func runLogout(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	return effect.Ok("").WithEffect(effect.New(effect.KindLogout, nil))
}

func runSu(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	username := "root"
	if len(pos) > 0 {
		username = pos[0].Text
	}
	if !sys.Identity.Users.UserExists(username) {
		return effect.Fail("su: no such user: " + username)
	}
	_ = sys.Audit.Log(cc.Actor.Name, "su", "switched to "+username)
	return effect.Ok("").WithEffect(effect.New(effect.KindSu, map[string]any{
		"username": username,
	}))
}

func runSudo(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	if len(pos) == 0 {
		return effect.Fail("sudo: missing command")
	}
	target := pos[0].Text
	groups := sys.Identity.EffectiveGroups(cc.Actor.Name)
	if !sys.Identity.Sudo.CanUserRunCommand(cc.Actor.Name, groups, target) {
		return effect.FailWithSuggestion(
			fmt.Sprintf("sudo: %s is not in the sudoers file", cc.Actor.Name),
			"this incident will be reported",
		)
	}
	_ = sys.Audit.Log(cc.Actor.Name, "SUDO_ATTEMPT", "Command: "+strings.Join(words(pos), " "))
	return effect.Ok("").WithEffect(effect.New(effect.KindSudoExec, map[string]any{
		"command": strings.Join(words(pos), " "),
	}))
}

func runVisudo(sys *System, cc shell.CommandContext, flags map[string]any, pos []shell.Token) effect.Result {
	text, err := readFileText(sys, "/etc/sudoers")
	if err != nil {
		return errResult(err)
	}
	return effect.Ok(text)
}
