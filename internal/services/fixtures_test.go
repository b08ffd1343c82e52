package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"servercv/dashboard/internal/db/repositories"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testGuild = "g1"

// Mock MembershipProvider
type mockMembershipProvider struct {
	mu                 sync.Mutex
	guilds             map[string][]entities.GuildMembership
	getMembershipsFunc func(ctx context.Context, actor entities.Actor) ([]entities.GuildMembership, error)
	calls              int
}

func (m *mockMembershipProvider) GetMemberships(ctx context.Context, actor entities.Actor) ([]entities.GuildMembership, error) {
	m.mu.Lock()
	m.calls++
	fn := m.getMembershipsFunc
	guilds := m.guilds[actor.UserID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, actor)
	}
	return guilds, nil
}

func (m *mockMembershipProvider) GetProviderType() string { return "mock" }

func (m *mockMembershipProvider) join(userID string, membership entities.GuildMembership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.guilds == nil {
		m.guilds = map[string][]entities.GuildMembership{}
	}
	m.guilds[userID] = append(m.guilds[userID], membership)
}

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	// One connection, or every new connection gets its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(gormModels.AllModels()...), "migrate")
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type engineFixture struct {
	db          *gorm.DB
	store       *repositories.ExperienceRepositoryGORM
	users       *repositories.UserRepositoryGORM
	memberships *mockMembershipProvider
	svc         *ExperienceService
}

// newEngineFixture seeds guild g1 with one user per role:
// owner, admin, admin2, mod, mod2 and member.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &engineFixture{
		db:          db,
		store:       repositories.NewExperienceRepositoryGORM(db),
		users:       repositories.NewUserRepositoryGORM(db),
		memberships: &mockMembershipProvider{},
	}
	f.svc = NewExperienceService(f.store, f.users, f.memberships, nil, 2*time.Second)

	f.addMember(t, "owner", entities.GuildMembership{Owner: true, Permissions: discordgo.PermissionAdministrator})
	f.addMember(t, "admin", entities.GuildMembership{Permissions: discordgo.PermissionAdministrator})
	f.addMember(t, "admin2", entities.GuildMembership{Permissions: discordgo.PermissionAdministrator})
	f.addMember(t, "mod", entities.GuildMembership{Permissions: discordgo.PermissionManageMessages})
	f.addMember(t, "mod2", entities.GuildMembership{Permissions: discordgo.PermissionKickMembers})
	f.addMember(t, "member", entities.GuildMembership{Permissions: discordgo.PermissionSendMessages})
	return f
}

func (f *engineFixture) addMember(t *testing.T, userID string, m entities.GuildMembership) {
	t.Helper()
	m.GuildID = testGuild
	m.Name = "Test Guild"
	m.Icon = "abc"
	f.memberships.join(userID, m)
	_, err := f.users.UpsertOnLogin(context.Background(), userID, userID, "")
	require.NoError(t, err)
}

func (f *engineFixture) makePremium(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.users.ActivatePremium(context.Background(), userID, "order-"+userID, time.Now()))
}

func actor(userID string) entities.Actor {
	return entities.Actor{UserID: userID, AccessToken: "token-" + userID}
}

func payload(title string, month, year int) entities.ExperiencePayload {
	return entities.ExperiencePayload{
		RoleTitle:   title,
		StartMonth:  month,
		StartYear:   year,
		Description: "x",
	}
}

func intPtr(v int) *int { return &v }

// create submits a valid record for userID and fails the test on error.
func (f *engineFixture) create(t *testing.T, userID string, p entities.ExperiencePayload) *gormModels.Experience {
	t.Helper()
	exp, err := f.svc.Create(context.Background(), actor(userID), testGuild, p)
	require.NoError(t, err)
	return exp
}

func (f *engineFixture) approved(t *testing.T, userID string, p entities.ExperiencePayload) *gormModels.Experience {
	t.Helper()
	exp := f.create(t, userID, p)
	exp, err := f.svc.Approve(context.Background(), actor("owner"), exp.ID)
	require.NoError(t, err)
	return exp
}

func (f *engineFixture) events(t *testing.T, recordID string) []gormModels.ExperienceEvent {
	t.Helper()
	var events []gormModels.ExperienceEvent
	require.NoError(t, f.db.Where("record_id = ?", recordID).Order("id").Find(&events).Error)
	return events
}

func (f *engineFixture) historyCount(t *testing.T, recordID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&gormModels.ExperienceHistory{}).Where("experience_id = ?", recordID).Count(&n).Error)
	return n
}
