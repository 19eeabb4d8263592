package drivers

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gurbanow/rideline/pkg/models"
	redisclient "github.com/gurbanow/rideline/pkg/redis"
)

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *mockProfileStore) GetEligible(ctx context.Context, userIDs []uuid.UUID, vehicleType string, forDelivery bool) ([]models.Driver, error) {
	args := m.Called(ctx, userIDs, vehicleType, forDelivery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *mockProfileStore) UpdateLocation(ctx context.Context, userID uuid.UUID, latitude, longitude float64) error {
	return m.Called(ctx, userID, latitude, longitude).Error(0)
}

func (m *mockProfileStore) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return m.Called(ctx, userID, available).Error(0)
}

func (m *mockProfileStore) Assign(ctx context.Context, userID, rideID uuid.UUID) error {
	return m.Called(ctx, userID, rideID).Error(0)
}

func (m *mockProfileStore) Release(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockProfileStore) CreditEarnings(ctx context.Context, userID uuid.UUID, amount float64) error {
	return m.Called(ctx, userID, amount).Error(0)
}

func newTestService(t *testing.T) (*Service, *mockProfileStore, redismock.ClientMock) {
	t.Helper()
	db, redisMock := redismock.NewClientMock()
	store := &mockProfileStore{}
	svc := NewService(store, &redisclient.Client{Client: db}, nil)
	return svc, store, redisMock
}

func geoQuery(limit int) *redis.GeoRadiusQuery {
	return &redis.GeoRadiusQuery{
		Radius:   5,
		Unit:     "km",
		WithDist: true,
		Count:    limit,
		Sort:     "ASC",
	}
}

func TestFindNearbyReturnsEmptyOnRedisError(t *testing.T) {
	svc, _, redisMock := newTestService(t)

	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(30)).
		SetErr(errors.New("redis down"))

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 10)

	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestFindNearbyReturnsEmptyWhenNoDriversIndexed(t *testing.T) {
	svc, _, redisMock := newTestService(t)

	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(30)).
		SetVal([]redis.GeoLocation{})

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 10)

	assert.Empty(t, result)
}

func TestFindNearbyFiltersIneligibleAndKeepsOrder(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	near := uuid.New()
	busy := uuid.New()
	far := uuid.New()

	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(30)).
		SetVal([]redis.GeoLocation{
			{Name: near.String(), Dist: 0.4},
			{Name: busy.String(), Dist: 1.1},
			{Name: far.String(), Dist: 3.2},
		})
	redisMock.ExpectExists(driverLocationPrefix + near.String()).SetVal(1)
	redisMock.ExpectExists(driverLocationPrefix + busy.String()).SetVal(1)
	redisMock.ExpectExists(driverLocationPrefix + far.String()).SetVal(1)

	// The busy driver is filtered out at the profile store.
	store.On("GetEligible", mock.Anything, []uuid.UUID{near, busy, far}, "standard", false).
		Return([]models.Driver{
			{UserID: far, Status: models.DriverStatusApproved, IsVerified: true, IsAvailable: true, VehicleType: "standard"},
			{UserID: near, Status: models.DriverStatusApproved, IsVerified: true, IsAvailable: true, VehicleType: "standard"},
		}, nil)

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 10)

	require.Len(t, result, 2)
	assert.Equal(t, near, result[0].UserID)
	assert.InDelta(t, 400.0, result[0].DistanceMeters, 0.01)
	assert.Equal(t, far, result[1].UserID)
	assert.InDelta(t, 3200.0, result[1].DistanceMeters, 0.01)
}

func TestFindNearbyEvictsExpiredHeartbeats(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	fresh := uuid.New()
	stale := uuid.New()

	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(30)).
		SetVal([]redis.GeoLocation{
			{Name: fresh.String(), Dist: 0.4},
			{Name: stale.String(), Dist: 0.9},
		})
	redisMock.ExpectExists(driverLocationPrefix + fresh.String()).SetVal(1)
	redisMock.ExpectExists(driverLocationPrefix + stale.String()).SetVal(0)
	redisMock.ExpectZRem(driverGeoIndexKey, stale.String()).SetVal(1)

	store.On("GetEligible", mock.Anything, []uuid.UUID{fresh}, "standard", false).
		Return([]models.Driver{
			{UserID: fresh, Status: models.DriverStatusApproved, IsVerified: true, IsAvailable: true, VehicleType: "standard"},
		}, nil)

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 10)

	require.Len(t, result, 1)
	assert.Equal(t, fresh, result[0].UserID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestFindNearbyReturnsEmptyOnStoreError(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	id := uuid.New()
	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(30)).
		SetVal([]redis.GeoLocation{{Name: id.String(), Dist: 0.5}})
	redisMock.ExpectExists(driverLocationPrefix + id.String()).SetVal(1)

	store.On("GetEligible", mock.Anything, mock.Anything, "standard", false).
		Return(nil, errors.New("db down"))

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 10)

	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestFindNearbyRespectsLimit(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	locations := make([]redis.GeoLocation, len(ids))
	eligible := make([]models.Driver, len(ids))
	for i, id := range ids {
		locations[i] = redis.GeoLocation{Name: id.String(), Dist: float64(i) + 0.5}
		eligible[i] = models.Driver{UserID: id, Status: models.DriverStatusApproved, IsVerified: true, IsAvailable: true, VehicleType: "standard"}
	}

	redisMock.ExpectGeoRadius(driverGeoIndexKey, -122.4194, 37.7749, geoQuery(6)).
		SetVal(locations)
	for _, id := range ids {
		redisMock.ExpectExists(driverLocationPrefix + id.String()).SetVal(1)
	}
	store.On("GetEligible", mock.Anything, ids, "standard", false).Return(eligible, nil)

	result := svc.FindNearby(context.Background(), 37.7749, -122.4194, 5000, "standard", false, 2)

	require.Len(t, result, 2)
	assert.Equal(t, ids[0], result[0].UserID)
	assert.Equal(t, ids[1], result[1].UserID)
}

func TestUpdateLocationWritesBothStores(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	driverID := uuid.New()
	store.On("UpdateLocation", mock.Anything, driverID, 37.7749, -122.4194).Return(nil)

	redisMock.ExpectGeoAdd(driverGeoIndexKey, &redis.GeoLocation{
		Longitude: -122.4194,
		Latitude:  37.7749,
		Name:      driverID.String(),
	}).SetVal(1)
	redisMock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet(driverLocationPrefix+driverID.String(), nil, driverLocationTTL).SetVal("OK")

	err := svc.UpdateLocation(context.Background(), driverID, 37.7749, -122.4194)

	require.NoError(t, err)
	store.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestSetAvailabilityOfflineRemovesFromIndex(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	driverID := uuid.New()
	store.On("SetAvailability", mock.Anything, driverID, false).Return(nil)
	redisMock.ExpectZRem(driverGeoIndexKey, driverID.String()).SetVal(1)

	err := svc.SetAvailability(context.Background(), driverID, false)

	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestSetAvailabilityOnlineKeepsIndexUntouched(t *testing.T) {
	svc, store, redisMock := newTestService(t)

	driverID := uuid.New()
	store.On("SetAvailability", mock.Anything, driverID, true).Return(nil)

	err := svc.SetAvailability(context.Background(), driverID, true)

	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
