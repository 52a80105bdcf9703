package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/aobvh/asset"
	"github.com/achilleasa/aobvh/asset/compiler"
	"github.com/achilleasa/aobvh/asset/compiler/input"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/log"
	"github.com/achilleasa/aobvh/types"
)

var errIndexOutOfBounds = errors.New("index out of bounds")

type wavefrontSceneReader struct {
	logger log.Logger
	opts   compiler.Options

	// The parsed scene.
	rawScene *input.Scene

	// List of vertices and uv coords.
	vertexList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string

	// Statements we do not handle; each one is logged once.
	skipped map[string]struct{}
}

// Create a new wavefront scene reader.
func newWavefrontReader(opts compiler.Options) *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:     log.New("wavefront reader"),
		opts:       opts,
		rawScene:   input.NewScene(),
		vertexList: make([]types.Vec3, 0),
		uvList:     make([]types.Vec2, 0),
		errStack:   make([]string, 0),
		skipped:    make(map[string]struct{}),
	}
}

// Read scene definition and compile it into a two-level BVH scene.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	rawScene, err := r.ReadInput(sceneRes)
	if err != nil {
		return nil, err
	}

	return compiler.Compile(rawScene, r.opts)
}

// Parse the scene geometry without compiling it.
func (r *wavefrontSceneReader) ReadInput(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Noticef(
		"parsed scene in %d ms (%d meshes, %d triangles)",
		time.Since(start).Nanoseconds()/1e6, len(r.rawScene.Meshes), r.rawScene.PrimitiveCount(),
	)
	return r.rawScene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s:%d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv offsets we can apply them while parsing
	// faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedMesh()
			r.rawScene.Meshes = append(r.rawScene.Meshes, input.NewMesh(lineTokens[1]))
		case "f":
			primList, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			// If no object has been defined create a default one
			if len(r.rawScene.Meshes) == 0 {
				r.rawScene.Meshes = append(r.rawScene.Meshes, input.NewMesh("default"))
			}

			mesh := r.rawScene.Meshes[len(r.rawScene.Meshes)-1]
			for _, prim := range primList {
				mesh.AddPrimitive(prim)
			}
		case "camera_fov":
			r.rawScene.Camera.FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_eye":
			r.rawScene.Camera.Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_look":
			r.rawScene.Camera.Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_up":
			r.rawScene.Camera.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		default:
			if _, seen := r.skipped[lineTokens[0]]; !seen {
				r.skipped[lineTokens[0]] = struct{}{}
				r.logger.Debugf(`[%s:%d] ignoring unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	r.verifyLastParsedMesh()
	return nil
}

// Drop the last parsed mesh if it contains no polygons.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.rawScene.Meshes) - 1
	if lastMeshIndex >= 0 && len(r.rawScene.Meshes[lastMeshIndex].Primitives) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.rawScene.Meshes[lastMeshIndex].Name)
		r.rawScene.Meshes = r.rawScene.Meshes[:lastMeshIndex]
	}
}

// Parse face definition. Each face definition consists of 3 or more
// arguments, one for each vertex. Each one of the vertex arguments is
// comprised of 1, 2 or 3 args separated by a slash character. The following
// formats are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the end
// of the vertex/uv list. Normal indices are ignored. Polygons with more than 3
// vertices are split into a triangle fan around the first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset int) ([]*input.Primitive, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1
	vertices := make([]types.Vec3, argCount)
	uv := make([]types.Vec2, argCount)
	expIndices := 0
	for arg := 0; arg < argCount; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]

		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uv[arg] = r.uvList[vOffset]
		}
	}

	primitives := make([]*input.Primitive, 0, argCount-2)
	for i := 1; i+1 < argCount; i++ {
		primitives = append(primitives, &input.Primitive{
			Vertices: [3]types.Vec3{vertices[0], vertices[i], vertices[i+1]},
			UVs:      [3]types.Vec2{uv[0], uv[i], uv[i+1]},
		})
	}

	return primitives, nil
}

// Given an index for a face coord type (vertex, tex) calculate the proper
// offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if index == 0 || vOffset < 0 || vOffset >= coordListLen {
		return -1, errIndexOutOfBounds
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
