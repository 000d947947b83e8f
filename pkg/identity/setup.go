package identity

import (
	"fmt"

	"github.com/aedmark/shellos/pkg/vfs"
)

// System bundles the three identity-adjacent managers plus the VFS handle
// the setup transaction needs to touch, mirroring the kernel-level wiring
// original_source performs at boot.
type System struct {
	Users  *UserManager
	Groups *GroupManager
	Sudo   *SudoManager
	FS     *vfs.FS
}

func NewSystem(fs *vfs.FS) *System {
	return &System{
		Users:  NewUserManager(),
		Groups: NewGroupManager(),
		Sudo:   NewSudoManager(fs),
		FS:     fs,
	}
}

// FirstTimeSetup performs the transactional onboarding flow: snapshot
// users/groups/fs, rebuild the default filesystem, ensure root/Guest
// accounts, register the new user with their own primary group, create and
// chown their home directory, set root's password, and persist. Any
// failure restores all three snapshots so no partial state escapes,
// matching spec.md §4.4's "no partial state escapes" guarantee.
func (s *System) FirstTimeSetup(newUsername, newUserPassword, rootPassword string) (err error) {
	usersBackup := s.Users.Snapshot()
	groupsBackup := s.Groups.Snapshot()
	fsBackup := s.FS.SaveStateToJSON()

	defer func() {
		if err != nil {
			s.Users.LoadUsers(usersBackup)
			s.Groups.LoadGroups(groupsBackup)
			_ = s.FS.LoadStateFromJSON([]byte(fsBackup))
		}
	}()

	if err = ValidateUsername(newUsername); err != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	s.FS.Reset()

	if !s.Groups.GroupExists("root") {
		if gErr := s.Groups.CreateGroup("root"); gErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, gErr)
		}
	}
	if !s.Users.UserExists("root") {
		if uErr := s.Users.RegisterUser("root", "", "root"); uErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, uErr)
		}
	}
	if !s.Groups.GroupExists("Guest") {
		if gErr := s.Groups.CreateGroup("Guest"); gErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, gErr)
		}
	}
	if !s.Users.UserExists("Guest") {
		if uErr := s.Users.RegisterUser("Guest", "", "Guest"); uErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, uErr)
		}
		_ = s.Groups.AddUserToGroup("Guest", "Guest")
	}

	if !s.Groups.GroupExists(newUsername) {
		if gErr := s.Groups.CreateGroup(newUsername); gErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, gErr)
		}
	}
	if rErr := s.Users.RegisterUser(newUsername, newUserPassword, newUsername); rErr != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, rErr)
	}
	if aErr := s.Groups.AddUserToGroup(newUsername, newUsername); aErr != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, aErr)
	}

	homePath := "/home/" + newUsername
	rootActor := vfs.Actor{Name: "root", Groups: []string{"root"}}
	if cErr := s.FS.CreateDirectory(homePath, rootActor); cErr != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, cErr)
	}
	if cErr := s.FS.Chown(homePath, newUsername, rootActor); cErr != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, cErr)
	}
	if cErr := s.FS.Chgrp(homePath, newUsername, rootActor); cErr != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, cErr)
	}

	if rootPassword != "" {
		if sErr := s.Users.SetPassword("root", rootPassword); sErr != nil {
			return fmt.Errorf("%w: %v", ErrSetupFailed, sErr)
		}
	}

	return nil
}

// EffectiveGroups returns the user's full membership set: their primary
// group plus every supplementary group they belong to.
func (s *System) EffectiveGroups(username string) []string {
	user, ok := s.Users.GetUser(username)
	if !ok {
		return nil
	}
	seen := map[string]bool{user.PrimaryGroup: true}
	groups := []string{user.PrimaryGroup}
	for _, g := range s.Groups.GroupsForUser(username) {
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}

// ActorFor builds a vfs.Actor for username, resolving their effective group
// set through the system's GroupManager.
func (s *System) ActorFor(username string) vfs.Actor {
	return vfs.Actor{Name: username, Groups: s.EffectiveGroups(username)}
}
