package renderer

import (
	"GopherAR/internal/logger"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var currentTextureID uint32 = ^uint32(0) // Initialize with an invalid value

type spotUniformNames struct {
	position, direction, color, intensity, distance, decay, coneCos, penumbraCos string
}

type OpenGLRenderer struct {
	defaultShader Shader
	uniforms      *UniformCache
	spotNames     [MaxSpotLights]spotUniformNames
	meshes        map[*Mesh]struct{} // uploaded meshes, released in Cleanup
	textures      map[*Material]struct{}
	clearColor    mgl32.Vec3
	width, height int32
}

func (rend *OpenGLRenderer) Init(width, height int32, _ *glfw.Window) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("opengl init: %w", err)
	}

	if Debug {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	rend.meshes = make(map[*Mesh]struct{})
	rend.textures = make(map[*Material]struct{})
	for i := range rend.spotNames {
		prefix := fmt.Sprintf("spotLights[%d].", i)
		rend.spotNames[i] = spotUniformNames{
			position:    prefix + "position",
			direction:   prefix + "direction",
			color:       prefix + "color",
			intensity:   prefix + "intensity",
			distance:    prefix + "distance",
			decay:       prefix + "decay",
			coneCos:     prefix + "coneCos",
			penumbraCos: prefix + "penumbraCos",
		}
	}
	rend.SetSize(width, height)
	rend.InitShader()
	logger.Log.Info("OpenGL render initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.Int32("width", width), zap.Int32("height", height))
	return nil
}

func (rend *OpenGLRenderer) InitShader() {
	rend.defaultShader = InitShader()
	rend.defaultShader.Compile()
	rend.uniforms = NewUniformCache(rend.defaultShader.program)
}

// SetSize updates the drawing buffer size in physical pixels.
func (rend *OpenGLRenderer) SetSize(width, height int32) {
	rend.width, rend.height = width, height
	gl.Viewport(0, 0, width, height)
}

func (rend *OpenGLRenderer) SetClearColor(r, g, b float32) {
	rend.clearColor = mgl32.Vec3{r, g, b}
}

func (rend *OpenGLRenderer) upload(mesh *Mesh) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.InterleavedData)*4, gl.Ptr(mesh.InterleavedData), gl.STATIC_DRAW)

	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Faces)*4, gl.Ptr(mesh.Faces), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	mesh.VAO = vao
	mesh.VBO = vbo
	mesh.EBO = ebo
	rend.meshes[mesh] = struct{}{}

	logger.Log.Debug("Mesh uploaded",
		zap.String("name", mesh.Name),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("indices", len(mesh.Faces)))
}

func (rend *OpenGLRenderer) uploadTexture(mat *Material) {
	textureID, err := rend.CreateTextureFromImage(mat.Image)
	if err != nil {
		logger.Log.Error("Texture upload failed", zap.String("material", mat.Name), zap.Error(err))
		mat.Image = nil
		return
	}
	mat.TextureID = textureID
	rend.textures[mat] = struct{}{}
}

func isTransparent(mat *Material) bool {
	return mat.Alpha < 1 || mat.Image != nil || mat.TextureID != 0
}

// Render draws the items once through camera. Opaque items go first; items
// with alpha or a texture are drawn back to front with blending.
func (rend *OpenGLRenderer) Render(camera *Camera, items []DrawItem, lights []LightInstance) {
	gl.ClearColor(rend.clearColor.X(), rend.clearColor.Y(), rend.clearColor.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if DepthTestEnabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	rend.defaultShader.Use()
	rend.uniforms.SetMat4("viewProjection", camera.GetViewProjection())
	rend.uniforms.SetVec3("viewPos", camera.Position)
	rend.uniforms.SetInt("textureSampler", 0)
	rend.setLightUniforms(lights)

	opaque := make([]DrawItem, 0, len(items))
	var blended []DrawItem
	for _, item := range items {
		if item.Mesh == nil || len(item.Mesh.Faces) == 0 {
			continue
		}
		if item.Mesh.Material == nil {
			item.Mesh.Material = NewMaterial("default", [3]float32{1, 1, 1})
		}
		if isTransparent(item.Mesh.Material) {
			blended = append(blended, item)
		} else {
			opaque = append(opaque, item)
		}
	}

	for _, item := range opaque {
		rend.draw(item)
	}

	if len(blended) > 0 {
		sort.SliceStable(blended, func(i, j int) bool {
			di := blended[i].World.Col(3).Vec3().Sub(camera.Position).LenSqr()
			dj := blended[j].World.Col(3).Vec3().Sub(camera.Position).LenSqr()
			return di > dj
		})
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, item := range blended {
			rend.draw(item)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
}

func (rend *OpenGLRenderer) draw(item DrawItem) {
	mesh := item.Mesh
	mat := mesh.Material
	if !mesh.Uploaded() {
		rend.upload(mesh)
	}
	if mat.Image != nil && mat.TextureID == 0 {
		rend.uploadTexture(mat)
	}

	// Culling : https://learnopengl.com/Advanced-OpenGL/Face-culling
	if FaceCullingEnabled && !mat.DoubleSided {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	rend.uniforms.SetMat4("model", item.World)
	rend.uniforms.SetVec3("diffuseColor", mgl32.Vec3(mat.DiffuseColor))
	rend.uniforms.SetVec3("specularColor", mgl32.Vec3(mat.SpecularColor))
	rend.uniforms.SetFloat("shininess", mat.Shininess)
	rend.uniforms.SetFloat("alpha", mat.Alpha)
	rend.uniforms.SetBool("unlit", mat.Unlit)
	rend.uniforms.SetBool("useTexture", mat.TextureID != 0)

	if mat.TextureID != 0 && mat.TextureID != currentTextureID {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, mat.TextureID)
		currentTextureID = mat.TextureID
	}

	gl.BindVertexArray(mesh.VAO)
	gl.DrawElements(gl.TRIANGLES, int32(len(mesh.Faces)), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (rend *OpenGLRenderer) setLightUniforms(lights []LightInstance) {
	var ambient mgl32.Vec3
	spots := 0
	for _, li := range lights {
		l := li.Light
		switch l.Type {
		case AMBIENT_LIGHT:
			ambient = ambient.Add(l.Color.Mul(l.Intensity))
		case SPOT_LIGHT:
			if spots == MaxSpotLights {
				continue
			}
			names := rend.spotNames[spots]
			inner := l.Angle * (1 - l.Penumbra)
			rend.uniforms.SetVec3(names.position, li.Position)
			rend.uniforms.SetVec3(names.direction, li.Direction)
			rend.uniforms.SetVec3(names.color, l.Color)
			rend.uniforms.SetFloat(names.intensity, l.Intensity)
			rend.uniforms.SetFloat(names.distance, l.Distance)
			rend.uniforms.SetFloat(names.decay, l.Decay)
			rend.uniforms.SetFloat(names.coneCos, float32(math.Cos(float64(l.Angle))))
			rend.uniforms.SetFloat(names.penumbraCos, float32(math.Cos(float64(inner))))
			spots++
		}
	}
	rend.uniforms.SetVec3("ambientColor", ambient)
	rend.uniforms.SetInt("spotLightCount", int32(spots))
}

func (rend *OpenGLRenderer) Cleanup() {
	for mesh := range rend.meshes {
		gl.DeleteVertexArrays(1, &mesh.VAO)
		gl.DeleteBuffers(1, &mesh.VBO)
		gl.DeleteBuffers(1, &mesh.EBO)
		mesh.VAO, mesh.VBO, mesh.EBO = 0, 0, 0
	}
	for mat := range rend.textures {
		gl.DeleteTextures(1, &mat.TextureID)
		mat.TextureID = 0
	}
	if rend.defaultShader.IsCompiled() {
		gl.DeleteProgram(rend.defaultShader.program)
	}
}

func (rend *OpenGLRenderer) CreateTextureFromImage(img image.Image) (uint32, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		// Convert to *image.RGBA if necessary
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	if rgba.Stride != rgba.Rect.Size().X*4 {
		return 0, fmt.Errorf("unsupported stride")
	}

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(rgba.Rect.Size().X), int32(rgba.Rect.Size().Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	currentTextureID = textureID

	return textureID, nil
}

func GenShader(source string, shaderType uint32) uint32 {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		logger.Log.Error("Failed to compile", zap.Uint32("shader type:", shaderType), zap.String("log", log))
	}

	return shader
}

func GenShaderProgram(vertexShader, fragmentShader uint32) uint32 {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		logger.Log.Error("Failed to link program", zap.String("log", log))
	}
	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)
	return program
}
