package view

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
)

// PlaylistDoc is a PlaylistView plus the stored video order.
type PlaylistDoc struct {
	model.PlaylistView `bson:",inline"`
	VideoIDs           []bson.ObjectID `bson:"videoIds"`
}

// PlaylistDetail assembles one playlist.
func PlaylistDetail(playlistID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(playlistID); err != nil {
		return nil, err
	}
	return playlistPipeline(ds.Eq("_id", playlistID)), nil
}

// UserPlaylists assembles every playlist of one owner.
func UserPlaylists(ownerID bson.ObjectID) (ds.Pipeline, error) {
	if err := model.RequireIDs(ownerID); err != nil {
		return nil, err
	}
	return playlistPipeline(ds.Eq("owner", ownerID)), nil
}

func playlistPipeline(match ds.Cond) ds.Pipeline {
	return ds.Pipeline{
		ds.Match{Cond: match},
		ds.AddFields{Fields: []ds.Assign{ds.Set("videoIds", ds.Field("videos"))}},
		ds.Lookup{
			From:         model.CollectionVideos,
			LocalField:   "videos",
			ForeignField: "_id",
			As:           "videos",
			Pipeline:     videoCardStages(),
		},
		ownerLookup("owner", "owner"),
		ds.AddFields{Fields: []ds.Assign{
			ds.Set("owner", ds.First(ds.Field("owner"))),
			ds.Set("totalVideos", ds.Size(ds.Field("videos"))),
			ds.Set("totalDuration", ds.Sum(ds.Field("videos.duration"))),
			ds.Set("totalViews", ds.Sum(ds.Field("videos.views"))),
		}},
		ds.Project{Fields: []string{
			"name", "description", "owner", "videos", "videoIds",
			"totalVideos", "totalDuration", "totalViews", "createdAt", "updatedAt",
		}},
	}
}

// OrderCards puts cards in the order of ids, most recent last. Cards whose id
// is not listed are dropped; newestFirst reverses the result.
func OrderCards(cards []model.VideoCard, ids []bson.ObjectID, newestFirst bool) []model.VideoCard {
	byID := make(map[bson.ObjectID]model.VideoCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	out := make([]model.VideoCard, 0, len(cards))
	seen := make(map[bson.ObjectID]bool, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
